package resumes

import "errors"

var ErrNotFound = errors.New("resume not found")

const (
	ErrorCodeValidation   = "validation_error"
	ErrorCodeFileRequired = "file_required"
	ErrorCodeNotFound     = "not_found"
	ErrorCodeInternal     = "internal_error"
)
