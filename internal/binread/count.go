package binread

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Count converts a stored element count to int, rejecting negative values.
func Count[T constraints.Integer](v T) (int, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrTruncated, "negative count %d", v)
	}
	return int(v), nil
}

