package dbs

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidDB = errors.New("invalid DB")

// ErrUnknownEngine reports an engine name Open does not know.
func ErrUnknownEngine(name string) error {
	return errors.Wrapf(ErrInvalidDB, "unknown engine %q (want one of %s)", name, strings.Join(Engines(), ", "))
}
