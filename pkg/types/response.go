package types

// SuccessEnvelope wraps every successful API payload under a top-level "data"
// key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Code comes from the pkg/errors taxonomy;
// Message is safe for end users.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under a top-level "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
