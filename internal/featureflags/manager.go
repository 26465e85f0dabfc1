// Package featureflags evaluates rollout flags configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flag names a feature flag.
type Flag string

const (
	// RemoveClearsIncomingInvites lets "remove friend" also drop a pending
	// invite the target sent to the caller when the caller has no edge of
	// their own. Off by default.
	RemoveClearsIncomingInvites Flag = "remove_clears_incoming_invites"
)

// known lists every flag the service reads, with the value used when the
// flag is absent from the configuration.
var known = map[Flag]string{
	RemoveClearsIncomingInvites: "off",
}

// Checker answers whether a flag is on for a user.
type Checker interface {
	Enabled(flag Flag, userID uint) bool
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "remove_clears_incoming_invites=25%"
type Manager struct {
	flags   map[Flag]string
	unknown []string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Keys that no code reads are kept aside and reported by Unknown.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[Flag]string, len(known))}
	for flag, def := range known {
		m.flags[flag] = def
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		if _, isKnown := known[Flag(key)]; !isKnown {
			m.unknown = append(m.unknown, key)
		}
		m.flags[Flag(key)] = value
	}
	sort.Strings(m.unknown)

	return m
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(flag Flag, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[Flag(normalize(string(flag)))]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(flag, userID) < pct
}

// Raw returns a copy of configured flags, defaults included.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[string(k)] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[string(name)] = m.Enabled(name, userID)
	}
	return out
}

// Unknown returns configured keys that are not registered flags, sorted.
func (m *Manager) Unknown() []string {
	return append([]string(nil), m.unknown...)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(flag Flag, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(string(flag)), userID)))
	return int(h.Sum32() % 100)
}
