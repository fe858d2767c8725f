package series

import "fmt"

// DuplicateColumnError reports an attempt to add a column under a name that
// already exists. Producing the same name twice is never resolved by
// overwriting; the caller must treat it as fatal.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Column)
}
