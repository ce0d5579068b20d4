package extract

import "errors"

var (
	// ErrEmptyFile is returned when the extract file is empty
	ErrEmptyFile = errors.New("extract file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the extract file has no header row
	ErrMissingHeader = errors.New("extract file missing header row")
)
