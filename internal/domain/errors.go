package domain

import "errors"

var (
	// ErrUnauthorized is returned when a result is saved without an identified user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPersistenceFailure wraps storage or network failures while saving results.
	ErrPersistenceFailure = errors.New("failed to save result")
	// ErrDataIntegrity marks a question with zero or several correct options.
	ErrDataIntegrity = errors.New("question has no single correct option")
	// ErrSubjectNotFound indicates the exam or lesson could not be loaded.
	ErrSubjectNotFound = errors.New("exam or lesson not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown or already discarded.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptInProgress is returned when finalizing an attempt that has not finished.
	ErrAttemptInProgress = errors.New("attempt still in progress")
	// ErrIncompleteAttempt indicates a ledger shorter than the question list.
	ErrIncompleteAttempt = errors.New("ledger does not cover every question")
	// ErrCourseNotFound indicates the requested course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrResultNotFound indicates no stored result exists for the user and subject.
	ErrResultNotFound = errors.New("result not found")
)
