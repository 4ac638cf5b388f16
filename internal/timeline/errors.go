package timeline

import "errors"

var ErrInvalidIntent = errors.New("invalid intent")
