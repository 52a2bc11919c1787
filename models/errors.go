package models

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with fmt.Errorf
// and match them with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrTransportFailure    = errors.New("transport failure")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrDeviceAccessDenied  = errors.New("device access denied")
	ErrNotFound            = errors.New("not found")
)
