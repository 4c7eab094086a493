package keycodec

import "fmt"

// FormatError indicates that the input could not be read as an unencrypted
// RSA private key. No partial key is produced alongside it.
type FormatError struct {
	Reason string
	Cause  error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid RSA private key: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid RSA private key: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}
