package session

import (
	"signcam/internal/dto"
)

// ErrorMessage is displayed when an upload fails before the service answers.
const ErrorMessage = "Error processing request"

// Status tags a Prediction.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "idle"
	}
}

// Prediction is the result shown to the user. Success with empty Text is an empty label,
// which is distinct from Idle.
type Prediction struct {
	Status Status
	Text   string
}

func Idle() Prediction { return Prediction{Status: StatusIdle} }

func Loading() Prediction { return Prediction{Status: StatusLoading} }

func Success(text string) Prediction { return Prediction{Status: StatusSuccess, Text: text} }

func Failure(reason string) Prediction { return Prediction{Status: StatusFailure, Text: reason} }

// Display returns the text to render: the label, the failure reason, or "".
func (p Prediction) Display() string {
	switch p.Status {
	case StatusSuccess, StatusFailure:
		return p.Text
	default:
		return ""
	}
}

// File is an image chosen for upload.
type File struct {
	Name string
	Data []byte
}

// State is the whole session. Transitions are pure: they return a new State.
type State struct {
	SelectedFile *File
	Prediction   Prediction
	Loading      bool
	UseLiveVideo bool
	StreamID     string
}

// WithFile selects f and clears the prediction.
func (s State) WithFile(f File) State {
	s.SelectedFile = &f
	s.Prediction = Idle()
	return s
}

// BeginUpload marks an upload as in flight.
func (s State) BeginUpload() State {
	s.Loading = true
	s.Prediction = Loading()
	return s
}

// FinishUpload applies the outcome of an upload and always clears Loading.
// The prediction field wins over the error field; a failed request shows ErrorMessage.
func (s State) FinishUpload(resp dto.PredictResponse, err error) State {
	s.Loading = false
	switch {
	case err != nil:
		s.Prediction = Failure(ErrorMessage)
	case resp.Prediction != "":
		s.Prediction = Success(resp.Prediction)
	case resp.Error != "":
		s.Prediction = Failure(resp.Error)
	default:
		s.Prediction = Success("")
	}
	return s
}

// BeginLive switches to live mode on the given stream and clears the prediction.
func (s State) BeginLive(streamID string) State {
	s.UseLiveVideo = true
	s.StreamID = streamID
	s.Prediction = Idle()
	return s
}

// ApplyFrame shows the label of a frame response; an absent label is an empty string.
func (s State) ApplyFrame(label string) State {
	s.Prediction = Success(label)
	return s
}

// EndLive returns to upload mode and clears the prediction.
func (s State) EndLive() State {
	s.UseLiveVideo = false
	s.StreamID = ""
	s.Prediction = Idle()
	return s
}

// View converts the state to its JSON form.
func (s State) View() dto.StateView {
	v := dto.StateView{
		Prediction: dto.PredictionView{
			Status: s.Prediction.Status.String(),
			Text:   s.Prediction.Text,
		},
		Display:      s.Prediction.Display(),
		Loading:      s.Loading,
		UseLiveVideo: s.UseLiveVideo,
		StreamID:     s.StreamID,
	}
	if s.SelectedFile != nil {
		v.SelectedFile = s.SelectedFile.Name
	}
	return v
}
