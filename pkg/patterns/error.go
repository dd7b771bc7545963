package patterns

import "strconv"

// NotFoundError is returned when a pattern doesn't exist in the store.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return "pattern not found"
	}

	return "pattern not found: " + strconv.FormatInt(e.ID, 10)
}
