package provisioning

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Setting keys shared by several steps.
const (
	SettingProducerPool   = "producerPool"
	SettingRequestTimeout = "requestTimeoutInterval"
)

// Settings is the flat set of named string options configured for one step instance.
type Settings map[string]string

// Required returns the value for key or ErrMissingSetting when it is absent or blank.
func (s Settings) Required(key string) (string, error) {
	v := strings.TrimSpace(s[key])
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSetting, key)
	}
	return v, nil
}

// Optional returns the value for key, or def when it is absent or blank.
func (s Settings) Optional(key, def string) string {
	if v := strings.TrimSpace(s[key]); v != "" {
		return v
	}
	return def
}

// Duration parses key as either a bare integer number of milliseconds or a Go duration string.
func (s Settings) Duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(s[key])
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("setting %s must be positive, got %d", key, ms)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("setting %s: invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("setting %s must be positive, got %s", key, d)
	}
	return d, nil
}

// Bool parses key as a boolean, returning def when it is absent.
func (s Settings) Bool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(s[key])
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("setting %s: invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}
