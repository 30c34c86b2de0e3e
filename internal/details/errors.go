package details

import (
	"errors"
	"fmt"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// ErrSelectionChanged is returned by FetchCurrent when the selection was
// replaced or reset while its details were loading
var ErrSelectionChanged = errors.New("selection changed during fetch")

// ErrShortPage marks a batch that came back with fewer records than requested
var ErrShortPage = errors.New("provider returned fewer records than requested")

// FetchError reports the batch that made a whole fetch fail
type FetchError struct {
	Group domain.GroupKey
	Range numrange.Range
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s of group %s: %v", e.Range, e.Group, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
