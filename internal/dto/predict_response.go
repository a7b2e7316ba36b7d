package dto

// PredictResponse is the body returned by both prediction endpoints.
type PredictResponse struct {
	Prediction string `json:"prediction,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HasContent reports whether the service put anything displayable in the body.
func (r PredictResponse) HasContent() bool {
	return r.Prediction != "" || r.Error != ""
}
