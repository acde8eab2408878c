package attachments

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrNotFound        = errors.New("attachment not found")
)
