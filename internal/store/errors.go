package store

import "fmt"

// DuplicateKeyError is returned by InsertJobs when a row with the same id
// already exists.
type DuplicateKeyError struct{ ID string }

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("job %q already exists", e.ID)
}
