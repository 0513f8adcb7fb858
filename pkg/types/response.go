package types

// SuccessEnvelope wraps every 2xx body: {success, message?, data}.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// APIError is the machine-readable part of a failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope repeats the public message at the top level so clients
// that only read `message` still get something useful.
type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}

func NewSuccess(data any, message string) SuccessEnvelope {
	return SuccessEnvelope{Success: true, Message: message, Data: data}
}

func NewError(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{
		Message: message,
		Error:   APIError{Code: code, Message: message, Details: details},
	}
}
