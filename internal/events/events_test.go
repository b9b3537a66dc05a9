package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeDataRefreshed, map[string]int{"added": 3})

	e, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeDataRefreshed, e.Type)
	assert.Equal(t, SchemaVersion, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"added":3}`, string(e.Data))
	assert.False(t, e.At.IsZero())

	e, err = Parse(MakeEvent("", TypePing, nil))
	require.NoError(t, err)
	assert.Empty(t, e.Data)

	// Unencodable data is dropped, the event still goes out.
	e, err = Parse(MakeEvent("", TypeRefreshFailed, make(chan int)))
	require.NoError(t, err)
	assert.Equal(t, TypeRefreshFailed, e.Type)
	assert.Empty(t, e.Data)
}

func TestHub(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish("x")
	assert.Equal(t, "x", <-a)
	assert.Equal(t, "x", <-b)

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
	_, open := <-a
	assert.False(t, open)

	// A full buffer drops instead of blocking.
	for i := 0; i < 100; i++ {
		h.Publish("y")
	}
	assert.Len(t, b, cap(b))
	assert.Equal(t, 100-cap(b), h.Dropped())
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()

	h.Close()
	h.Close()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-a
	assert.False(t, open)

	// Unsubscribe after Close must not double-close.
	h.Unsubscribe(a)

	late := h.Subscribe()
	_, open = <-late
	assert.False(t, open)
	h.Publish("ignored")
}
