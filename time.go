package weave

import (
	"encoding/json"
	"time"

	"github.com/iov-one/trustd/errors"
)

// UnixTime is a point in time with second precision, stored as POSIX time.
// Creation and release times of trusts use it.
type UnixTime int64

// AsUnixTime drops the sub second part of t.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time returns t as time.Time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// IsZero returns true for the zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add returns t moved by d, truncated to whole seconds.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// Validate rejects times before the epoch.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrInvalidState, "negative value")
	}
	return nil
}

func (t UnixTime) String() string {
	return t.Time().String()
}

// UnmarshalJSON accepts both a number of seconds and an RFC 3339 string.
// Genesis files usually carry the latter.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var unix int64
	var stdtime time.Time
	switch {
	case json.Unmarshal(raw, &unix) == nil:
	case json.Unmarshal(raw, &stdtime) == nil:
		unix = stdtime.Unix()
	default:
		return errors.Wrap(errors.ErrInvalidInput, "invalid time format")
	}
	if unix < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "time before epoch")
	}
	*t = UnixTime(unix)
	return nil
}
