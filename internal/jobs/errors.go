package jobs

import "errors"

var (
	ErrNotFound             = errors.New("job not found")
	ErrJobIDTaken           = errors.New("job id already in use")
	ErrValidation           = errors.New("validation failed")
	ErrStatusConflict       = errors.New("job status conflict")
	ErrVersionLimitExceeded = errors.New("summary version limit exceeded")
	ErrGenerationExhausted  = errors.New("system id generation exhausted")
)
