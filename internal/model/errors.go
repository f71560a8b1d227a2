package model

import "errors"

// Error kinds. Lower layers join one of these into the chain so the HTTP layer can
// pick the message shown to staff with errors.Is.
var (
	ErrAuth       = errors.New("authentication error")
	ErrDrive      = errors.New("drive error")
	ErrDatabase   = errors.New("database error")
	ErrValidation = errors.New("validation error")
	ErrLLM        = errors.New("llm error")
)

// Kind wraps err so that errors.Is(err, kind) holds. A nil err stays nil.
func Kind(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, err: err}
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() []error { return []error{e.err, e.kind} }
