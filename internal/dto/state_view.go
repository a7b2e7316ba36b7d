package dto

// StateView is the session snapshot sent to the page, over HTTP and the websocket.
type StateView struct {
	SelectedFile string         `json:"selectedFile,omitempty"`
	Prediction   PredictionView `json:"prediction"`
	Display      string         `json:"display"`
	Loading      bool           `json:"loading"`
	UseLiveVideo bool           `json:"useLiveVideo"`
	StreamID     string         `json:"streamId,omitempty"`
}

type PredictionView struct {
	Status string `json:"status"` // idle, loading, success, failure
	Text   string `json:"text,omitempty"`
}
