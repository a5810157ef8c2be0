package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// StateTimeLayout is the expiry layout used in entity state maps. Times are UTC.
const StateTimeLayout = "2006-01-02 15:04:05"

// State is the flat, store-agnostic representation of a protocol entity.
// Values are strings, bools or integers; structured fields are JSON strings.
type State map[string]any

func (s State) str(key string, required bool) (string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("state: missing %q", key)
		}
		return "", nil
	}
	switch t := v.(type) {
	case string:
		if required && t == "" {
			return "", fmt.Errorf("state: empty %q", key)
		}
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return "", fmt.Errorf("state: %q has type %T, want string", key, v)
	}
}

// boolean accepts the encodings stores hand back: native bools, integers and
// their string forms.
func (s State) boolean(key string) (bool, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case string:
		if t == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("state: %q: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("state: %q has type %T, want bool", key, v)
	}
}

func (s State) time(key string) (time.Time, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("state: missing %q", key)
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		ts, err := time.ParseInLocation(StateTimeLayout, t, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("state: %q: %w", key, err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("state: %q has type %T, want time string", key, v)
	}
}

func (s State) stringList(key string) ([]string, error) {
	raw, err := s.str(key, false)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("state: %q: %w", key, err)
	}
	return out, nil
}

func formatStateTime(t time.Time) string {
	return t.UTC().Format(StateTimeLayout)
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// only reachable for unsupported types, which the entity fields are not
		panic(fmt.Sprintf("state: encode: %v", err))
	}
	return string(b)
}
