package stub

import "errors"

var (
	ErrMappingNotFound = errors.New("mapping not found")
	ErrUnknownAction   = errors.New("unknown post-serve action")
	ErrInvalidMapping  = errors.New("invalid mapping")
)
