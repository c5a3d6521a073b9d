package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrEscrutinioNotFound indicates that tally record was not found
	ErrEscrutinioNotFound = errors.New("escrutinio not found")

	// ErrEscrutinioExists indicates that a tally record for the mesa and level already exists
	ErrEscrutinioExists = errors.New("escrutinio already exists")

	// ErrPapeletaNotFound indicates that ballot was not found
	ErrPapeletaNotFound = errors.New("papeleta not found")

	// ErrPapeletaExists indicates that ballot with this id already exists
	ErrPapeletaExists = errors.New("papeleta already exists")

	// ErrCandidateNotFound indicates that no candidate matches party and casilla
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrCandidateExists indicates that candidate ID or party/casilla pair is taken
	ErrCandidateExists = errors.New("candidate already exists")

	// ErrBatchNotFound indicates that applied batch marker was not found
	ErrBatchNotFound = errors.New("applied batch not found")
)
