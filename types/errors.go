package types

import "errors"

var (
	// ErrNotFound covers both missing resources and resources owned by
	// another user.
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrDecode                = errors.New("decode error")
	ErrExtraction            = errors.New("extraction error")
	ErrNoExtractableContent  = errors.New("no extractable content")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrGenerationParse       = errors.New("generation output could not be parsed")
)
