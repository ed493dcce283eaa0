package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when no question batch could be obtained.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrNoQuestions is returned when a session is created with an empty question list.
	ErrNoQuestions = errors.New("session requires at least one question")
	// ErrInvalidQuestion indicates a question with fewer than two options or no correct option.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidUser indicates a missing or malformed user identifier.
	ErrInvalidUser = errors.New("invalid user identifier")
	// ErrSessionNotFound is returned when a quiz session is unknown or already discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned for operations attempted outside the in-progress phase.
	ErrSessionNotActive = errors.New("quiz session is not in progress")
	// ErrInvalidNavigation indicates an out-of-range question index.
	ErrInvalidNavigation = errors.New("question index out of range")
	// ErrOptionNotFound indicates a selected option index is invalid for the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSubmissionNotFound is returned when no completed submission exists for a session.
	ErrSubmissionNotFound = errors.New("submission not found")
)
