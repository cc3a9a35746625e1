package vo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputsPreserveInsertionOrder(t *testing.T) {
	o := NewOutputs()
	o.Set("webm", "https://cdn.example.com/a.webm")
	o.Set("mp4", "https://cdn.example.com/a.mp4")
	o.Set("ogg", "https://cdn.example.com/a.ogg")

	entries := o.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "webm", entries[0].Label)
	assert.Equal(t, "mp4", entries[1].Label)
	assert.Equal(t, "ogg", entries[2].Label)
}

func TestOutputsSetOverwritesInPlace(t *testing.T) {
	o := NewOutputs()
	o.Set("mp4", "v1")
	o.Set("webm", "v1")
	o.Set("mp4", "v2")

	entries := o.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "mp4", entries[0].Label)
	assert.Equal(t, "v2", entries[0].URL)
}

func TestOutputsJSONRoundTripKeepsOrder(t *testing.T) {
	o := NewOutputs()
	o.Set("webm", "u1")
	o.Set("mp4", "u2")

	raw, err := o.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"webm":"u1","mp4":"u2"}`, raw)

	restored, err := OutputsFromJSON(raw)
	require.NoError(t, err)
	assert.True(t, o.Equal(restored))

	entries := restored.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "webm", entries[0].Label)
	assert.Equal(t, "mp4", entries[1].Label)
}

func TestOutputsEmptySerializesToEmptyString(t *testing.T) {
	raw, err := NewOutputs().ToJSON()
	require.NoError(t, err)
	assert.Equal(t, "", raw)

	restored, err := OutputsFromJSON("")
	require.NoError(t, err)
	assert.True(t, restored.IsEmpty())
}

func TestOutputsFromJSONRejectsNonObject(t *testing.T) {
	_, err := OutputsFromJSON(`["mp4"]`)
	assert.Error(t, err)

	_, err = OutputsFromJSON(`{"mp4": 42}`)
	assert.Error(t, err)
}

func TestOutputsUnmarshalInsideStruct(t *testing.T) {
	var payload struct {
		Outputs *Outputs `json:"outputs"`
	}
	err := json.Unmarshal([]byte(`{"outputs":{"ogg":"a","mp4":"b"}}`), &payload)
	require.NoError(t, err)
	require.NotNil(t, payload.Outputs)

	entries := payload.Outputs.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ogg", entries[0].Label)
	assert.Equal(t, "mp4", entries[1].Label)
}

func TestOutputsEqual(t *testing.T) {
	a := NewOutputs()
	a.Set("mp4", "u")
	b := NewOutputs()
	b.Set("mp4", "u")
	assert.True(t, a.Equal(b))

	b.Set("webm", "v")
	assert.False(t, a.Equal(b))

	// 顺序不同视为不等
	c := NewOutputs()
	c.Set("webm", "v")
	c.Set("mp4", "u")
	d := NewOutputs()
	d.Set("mp4", "u")
	d.Set("webm", "v")
	assert.False(t, c.Equal(d))
}
