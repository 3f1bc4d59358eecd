package models

// ErrorResponse is a standardized error response for API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusResponse is returned by endpoints that only acknowledge an action
type StatusResponse struct {
	Message string `json:"message"`
}
