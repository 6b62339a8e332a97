package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrLectureNotFound      = errors.New("lecture not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizInactive         = errors.New("quiz is not active")
	ErrQuizAlreadyExists    = errors.New("a quiz already exists for this lecture")
	ErrTextTooShort         = errors.New("lecture text too short for quiz generation")
	ErrInvalidModelResponse = errors.New("model returned an invalid quiz")
	ErrModelQuotaExceeded   = errors.New("model quota exceeded, try again later")
	ErrNotEnrolled          = errors.New("not enrolled in this class")
	ErrAlreadySubmitted     = errors.New("quiz already submitted")
	ErrResultNotFound       = errors.New("result not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrInvalidOption        = errors.New("invalid option label")
	ErrUnsupportedFormat    = errors.New("unsupported document format")
)
