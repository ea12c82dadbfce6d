package services

// Result communicates an expected business-rule outcome as a value.
// Violations like "already invited" are not errors: the caller decides
// how to surface the message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Ok returns a successful Result with a message.
func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail returns a failed Result with a message.
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Option is a value/label pair for client-side select inputs.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
