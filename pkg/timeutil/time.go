package timeutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// Time is the single timestamp representation used inside the core.
// Stored documents have carried three shapes over the app's lifetime:
// RFC3339 strings, JS epoch milliseconds, and {seconds,nanos} wrappers
// from the previous backend SDK. All of them are normalized here, at
// the adapter boundary, so none of the ambiguity escapes into domain
// or reducer logic.
type Time struct {
	time.Time
}

func Now() Time {
	return Time{Time: time.Now().UTC()}
}

func From(t time.Time) Time {
	return Time{Time: t.UTC()}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseString(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}

	var millis int64
	if err := json.Unmarshal(data, &millis); err == nil {
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	var wrapped struct {
		Seconds int64 `json:"seconds"`
		Nanos   int64 `json:"nanoseconds"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		t.Time = time.Unix(wrapped.Seconds, wrapped.Nanos).UTC()
		return nil
	}

	return fmt.Errorf("timeutil: unsupported timestamp shape: %s", data)
}

func parseString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: cannot parse timestamp %q", s)
}

// Before treats the zero value as earlier than any real timestamp so
// that sorts over legacy documents without a stamp stay deterministic.
func (t Time) Before(u Time) bool {
	return t.Time.Before(u.Time)
}

func (t Time) After(u Time) bool {
	return t.Time.After(u.Time)
}

func (t Time) Equal(u Time) bool {
	return t.Time.Equal(u.Time)
}
