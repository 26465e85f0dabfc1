// Package validation checks caller input before it reaches the services.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"playrewards/internal/models"
)

// MaxTargetIDs caps how many users one friend mutation may address.
const MaxTargetIDs = 100

// MaxUsernamePrefix is the longest username filter accepted. Usernames are
// stored with the same limit.
const MaxUsernamePrefix = 64

// TargetIDs validates a list of user ids sent by a client. The list must be
// non-empty, hold only positive JSON integers and stay within MaxTargetIDs.
// Quoted numbers are rejected. Repeated ids are collapsed, first occurrence wins.
func TargetIDs(raw []json.RawMessage) ([]uint, error) {
	if len(raw) == 0 {
		return nil, models.NewValidationError("ids must be a non-empty array")
	}
	if len(raw) > MaxTargetIDs {
		return nil, models.NewValidationError(fmt.Sprintf("ids may contain at most %d entries", MaxTargetIDs))
	}

	out := make([]uint, 0, len(raw))
	seen := make(map[uint]struct{}, len(raw))
	for _, elem := range raw {
		v, ok := positiveInt(elem)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("invalid id %s: ids must be positive integers", bytes.TrimSpace(elem)))
		}
		id := uint(v)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// positiveInt decodes one array element that must be a bare JSON number.
func positiveInt(elem json.RawMessage) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil || i <= 0 || uint64(i) > uint64(^uint32(0)) {
		return 0, false
	}
	return i, true
}

// OneOf returns value when it is one of allowed, def when value is empty, and
// a validation error otherwise. Matching ignores case and surrounding space.
func OneOf(field, value, def string, allowed ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return a, nil
		}
	}
	return "", models.NewValidationError(fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
}

// UsernamePrefix checks a username filter. The prefix is compared
// case-sensitively later, so it is returned untouched.
func UsernamePrefix(prefix string) (string, error) {
	if !utf8.ValidString(prefix) {
		return "", models.NewValidationError("username must be valid UTF-8")
	}
	if utf8.RuneCountInString(prefix) > MaxUsernamePrefix {
		return "", models.NewValidationError(fmt.Sprintf("username may be at most %d characters", MaxUsernamePrefix))
	}
	return prefix, nil
}
