package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrInvalidRun   = errors.New("invalid run record")
	ErrDuplicateRun = errors.New("run already recorded")
)
