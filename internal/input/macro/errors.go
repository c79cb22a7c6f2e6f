package macro

import "errors"

// Errors returned by macro operations.
var (
	ErrInvalidRegister  = errors.New("invalid macro register")
	ErrAlreadyRecording = errors.New("already recording")
	ErrEmptyRegister    = errors.New("empty macro register")
	ErrAlreadyPlaying   = errors.New("already playing a macro")
	ErrNothingPlayed    = errors.New("no macro has been played")
)
