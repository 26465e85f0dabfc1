package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"playrewards/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nums(values ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		out = append(out, json.RawMessage(v))
	}
	return out
}

func TestTargetIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     []json.RawMessage
		want    []uint
		wantErr bool
	}{
		{"Single", nums("2"), []uint{2}, false},
		{"Dedupes Keeping Order", nums("3", "1", "3", "2", "1"), []uint{3, 1, 2}, false},
		{"Empty", nil, nil, true},
		{"Zero", nums("0"), nil, true},
		{"Negative", nums("1", "-4"), nil, true},
		{"Fraction", nums("1.5"), nil, true},
		{"Not A Number", nums("abc"), nil, true},
		{"Overflow", nums("99999999999999"), nil, true},
		{"Quoted Number", nums(`"5"`), nil, true},
		{"Quoted Among Numbers", nums("4", `"7"`), nil, true},
		{"Null", nums("null"), nil, true},
		{"Bool", nums("true"), nil, true},
		{"Object", nums(`{"id":3}`), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetIDs(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsCode(err, models.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetIDs_Limit(t *testing.T) {
	t.Parallel()

	atLimit := make([]json.RawMessage, MaxTargetIDs)
	for i := range atLimit {
		atLimit[i] = json.RawMessage("7")
	}
	got, err := TargetIDs(atLimit)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, got)

	_, err = TargetIDs(append(atLimit, json.RawMessage("8")))
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestOneOf(t *testing.T) {
	t.Parallel()

	got, err := OneOf("presence", "", "all", "all", "online", "offline")
	require.NoError(t, err)
	assert.Equal(t, "all", got)

	got, err = OneOf("presence", " Online ", "all", "all", "online", "offline")
	require.NoError(t, err)
	assert.Equal(t, "online", got)

	_, err = OneOf("presence", "away", "all", "all", "online", "offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presence must be one of: all, online, offline")
}

func TestUsernamePrefix(t *testing.T) {
	t.Parallel()

	got, err := UsernamePrefix("Ab")
	require.NoError(t, err)
	assert.Equal(t, "Ab", got, "case must be preserved")

	_, err = UsernamePrefix(strings.Repeat("é", MaxUsernamePrefix))
	assert.NoError(t, err)

	_, err = UsernamePrefix(strings.Repeat("a", MaxUsernamePrefix+1))
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = UsernamePrefix(string([]byte{0xff}))
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
