package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResultNotFound indicates the requested result does not exist.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrUserNotFound indicates an unknown user identifier or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubjectNotFound indicates an unknown subject identifier.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrChapterNotFound indicates an unknown chapter identifier.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrInvalidSubmission is returned for malformed submission payloads.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrInvalidQuiz is returned when admin-supplied quiz content is malformed.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrEmailTaken is returned when registering an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBoardNotFound is returned when a leaderboard has not been initialized.
	ErrBoardNotFound = errors.New("leaderboard not found")
	// ErrInvalidCredentials is returned for a failed login. Deliberately does
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
