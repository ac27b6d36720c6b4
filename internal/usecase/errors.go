package usecase

import "fmt"

// DomainError marks a failure caused by the input itself (malformed file,
// invalid config row). Retrying without changing the input will not help,
// so these are reported to humans instead of dead-lettered for retry.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// TechnicalError marks an infrastructure failure (database, Drive, Sheets,
// broker). The operation is safe to retry once the dependency recovers.
type TechnicalError struct {
	Op  string
	Err error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func NewTechnicalError(op string, err error) *TechnicalError {
	return &TechnicalError{Op: op, Err: err}
}
