package services

// StatusError is a business-rule or validation failure that maps to a
// specific HTTP status with a user-facing message naming the offending
// item. Anything else surfaces as a 500.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string { return e.Msg }

func badRequest(msg string) *StatusError { return &StatusError{Code: 400, Msg: msg} }
func notFound(msg string) *StatusError   { return &StatusError{Code: 404, Msg: msg} }
