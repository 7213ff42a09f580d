package storage

import (
	"errors"

	"github.com/utiibeauty/parlour/libs/db"
)

// ErrNotFound is returned when a write targets a row that does not exist.
var ErrNotFound = errors.New("not found")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || db.IsNotFound(err) || db.IsInvalidInput(err)
}
