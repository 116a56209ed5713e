package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code          string         `json:"code,omitempty"`
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// CodeFromErr returns the machine readable code of the first sentinel err is marked with
func CodeFromErr(err error) string {
	for _, e := range statusPrecedence {
		if Is(err, e) {
			return e.(*InternalError).Code
		}
	}
	return ErrCodeSystemError
}
