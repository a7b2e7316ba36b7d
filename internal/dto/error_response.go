package dto

// ErrorResponse is returned by the API when a request cannot be served.
type ErrorResponse struct {
	Error string `json:"error"`
}
