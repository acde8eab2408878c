package allocations

import "errors"

var (
	ErrNotFound                  = errors.New("allocation not found")
	ErrInvalidWindow             = errors.New("invalid allocation window")
	ErrInvalidRole               = errors.New("invalid allocation role")
	ErrDuplicateActiveAllocation = errors.New("active allocation already exists for job and role")
	ErrJobNotInAssignableState   = errors.New("job not in assignable state")
	ErrAllocationNotActive       = errors.New("allocation not active")
)
