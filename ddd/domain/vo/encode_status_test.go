package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEncodeStatusFromString(t *testing.T) {
	valid := []string{"pending", "queued", "processing", "complete", "error", "cancelled"}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			st, err := NewEncodeStatusFromString(s)
			assert.NoError(t, err)
			assert.Equal(t, s, st.String())
			assert.True(t, st.IsValid())
		})
	}
}

func TestNewEncodeStatusFromStringRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "done", "failed", "PENDING", "Complete"} {
		t.Run(s, func(t *testing.T) {
			_, err := NewEncodeStatusFromString(s)
			assert.Error(t, err)
		})
	}
}

func TestEncodeStatusIsTerminal(t *testing.T) {
	assert.True(t, EncodeStatusComplete.IsTerminal())
	assert.True(t, EncodeStatusError.IsTerminal())
	assert.True(t, EncodeStatusCancelled.IsTerminal())

	assert.False(t, EncodeStatusPending.IsTerminal())
	assert.False(t, EncodeStatusQueued.IsTerminal())
	assert.False(t, EncodeStatusProcessing.IsTerminal())
}
