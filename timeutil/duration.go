package timeutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDuration is returned for values that are neither a Go duration
// string nor a combination of d, h, m and s segments.
var ErrInvalidDuration = errors.New("invalid duration")

var daysPattern = regexp.MustCompile(`^(\d+d)?(\d+h)?(\d+m)?(\d+s)?$`)

// Duration is a time.Duration that encodes to JSON as a string and also
// accepts day units when decoding, e.g. "2d12h".
type Duration time.Duration

// ParseDuration parses a Go duration string, falling back to the
// "1d2h3m4s" form where every segment is optional.
func ParseDuration(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}

	matches := daysPattern.FindStringSubmatch(value)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	var (
		duration time.Duration
		hasMatch bool
	)
	for _, match := range matches[1:] {
		if match == "" {
			continue
		}

		hasMatch = true

		unit := match[len(match)-1]
		num, err := strconv.Atoi(match[:len(match)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration segment %q: %w", match, err)
		}

		switch unit {
		case 'd':
			duration += time.Duration(num) * 24 * time.Hour
		case 'h':
			duration += time.Duration(num) * time.Hour
		case 'm':
			duration += time.Duration(num) * time.Minute
		case 's':
			duration += time.Duration(num) * time.Second
		}
	}

	if !hasMatch {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	return duration, nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return ErrInvalidDuration
	}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)

	return nil
}
