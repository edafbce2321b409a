package sampler

import (
	"errors"
	"fmt"
)

// ExhaustedError is returned when unique sampling rejects MaxAttempts
// duplicates in a row for one record.
type ExhaustedError struct {
	Collection string
	Attempts   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no new unique record after %d attempts", e.Attempts)
}

// IsExhaustedError returns true if err is or wraps an ExhaustedError.
func IsExhaustedError(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// RecordError attributes a record failure to its collection and index.
type RecordError struct {
	Collection string
	Index      int
	Err        error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("collection %s record %d: %v", e.Collection, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
