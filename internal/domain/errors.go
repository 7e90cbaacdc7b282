package domain

import "errors"

// Domain errors.
var (
	ErrStoreUnavailable = errors.New("content store unavailable")
	ErrInvalidScreen    = errors.New("invalid screen location")
	ErrInvalidLanguage  = errors.New("invalid language code")
)

var codes = map[error]string{
	ErrStoreUnavailable: "store_unavailable",
	ErrInvalidScreen:    "invalid_screen",
	ErrInvalidLanguage:  "invalid_language",
}

// Code returns the stable code of the first domain error wrapped by err, or "".
func Code(err error) string {
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}
