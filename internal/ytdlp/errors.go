package ytdlp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOutput is returned when no metadata strategy could read the dump output
	ErrInvalidOutput = errors.New("invalid JSON output from yt-dlp")
)

// ConfigError reports an option or setting that cannot be turned into arguments
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func configError(field, value, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
