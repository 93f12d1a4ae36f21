package upload

import "errors"

// ErrBusy is returned when a request to the analysis service is still
// outstanding.
var ErrBusy = errors.New("an upload is already in progress")

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
