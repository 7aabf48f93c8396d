// Package types contains wire types shared by the HTTP layer and clients.
package types

// Status values carried by Envelope.
const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
	StatusError     = "error"
)

// Envelope wraps every successful response body as {status, data}.
type Envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// Success wraps data in a success envelope.
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Status: StatusSuccess, Data: data}
}

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
