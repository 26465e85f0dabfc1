package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, f := range []Flag{"a", "c", "e"} {
		assert.True(t, m.Enabled(f, 1), "flag %s", f)
	}
	for _, f := range []Flag{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(f, 1), "flag %s", f)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}

	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")
}

func TestEnabled_PercentageRoughlyMatchesRollout(t *testing.T) {
	m := NewManager("half=50%")
	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("half", id) {
			on++
		}
	}
	assert.InDelta(t, 500, on, 100)
}

func TestRemoveClearsIncomingInvites_DefaultsOff(t *testing.T) {
	assert.False(t, NewManager("").Enabled(RemoveClearsIncomingInvites, 7))
	assert.True(t, NewManager("REMOVE_CLEARS_INCOMING_INVITES=on").Enabled(RemoveClearsIncomingInvites, 7))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(RemoveClearsIncomingInvites, 7))
}

func TestParseSnapshotAndUnknown(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])
	assert.Equal(t, "off", raw[string(RemoveClearsIncomingInvites)])
	assert.Len(t, raw, 4)

	snap := m.Snapshot(123)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.Len(t, snap, 4)

	assert.Equal(t, []string{"x", "y", "z"}, m.Unknown())
}
