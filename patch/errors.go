package patch

import "errors"

var (
	ErrTypeMismatch   = errors.New("patch would leave a value of the wrong type")
	ErrPathNotAllowed = errors.New("path is not in the allowed paths set")
)
