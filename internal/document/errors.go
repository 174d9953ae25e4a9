package document

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions or content types the loader cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrDocumentTooLarge is returned when a document exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
)
