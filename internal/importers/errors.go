package importers

import "errors"

// Input validation errors. These abort an import before any store call.
var (
	ErrUnsupportedFormat = errors.New("unsupported file type: expected .csv, .xlsx or .xls")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNotEnoughRows     = errors.New("file needs a header row and at least one data row")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrUnreadableFile    = errors.New("file could not be read")
	ErrInvalidOptions    = errors.New("invalid import options")
)

// Run errors.
var (
	ErrFetchExisting     = errors.New("failed to fetch existing questions")
	ErrBatchInsert       = errors.New("batch insert failed")
	ErrInvalidTransition = errors.New("invalid import status transition")
)

// IsInputError reports whether err is an input validation failure, as opposed
// to a failure talking to the question store.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrUnsupportedFormat,
		ErrEmptyFile,
		ErrNotEnoughRows,
		ErrMissingColumns,
		ErrUnreadableFile,
		ErrInvalidOptions,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
