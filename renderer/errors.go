package renderer

import "errors"

var (
	ErrInvalidSize     = errors.New("renderer: window width and height must be positive")
	ErrInvalidScale    = errors.New("renderer: capture scale must be positive")
	ErrFrameTooLarge   = errors.New("renderer: captured frame is too large")
	ErrSceneNotDefined = errors.New("renderer: no scene defined")
	ErrWrite           = errors.New("renderer: could not write image")
)
