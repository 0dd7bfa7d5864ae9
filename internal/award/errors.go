package award

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidState     = errors.New("invalid tender state")
	ErrConflict         = errors.New("conflicting operation")
	ErrNotFound         = errors.New("not found")
	ErrDataIntegrity    = errors.New("data integrity violation")
	ErrPermissionDenied = errors.New("permission denied")
)
