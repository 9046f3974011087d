package rest

// ResponseError is the minimal error envelope for handler-level
// failures; success paths use fres envelopes.
type ResponseError struct {
	Message string `json:"message"`
}
