package dto

// FrameRequest is the JSON body of POST /predict_frame.
type FrameRequest struct {
	Image string `json:"image"` // base64 PNG, no data-URL prefix
}
