package cyclefsm

import (
	"github.com/cockroachdb/errors"
)

// ErrConfiguration marks every error raised while building a table or an
// engine. A malformed table cannot be corrected at runtime, so these errors
// are meant to abort startup.
var ErrConfiguration = errors.New("fsm configuration error")

// IsConfigurationError reports whether err is (or wraps) a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}
