package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	var typed, all []Event
	bus.Subscribe(TypeBookingSucceeded, func(e Event) error {
		typed = append(typed, e)
		return nil
	})
	bus.Subscribe(TypeAll, func(e Event) error {
		all = append(all, e)
		return errors.New("ignored")
	})

	require.NoError(t, bus.PublishJSON(TypeBookingSucceeded, "sess-1", map[string]any{"appointments": 2}))
	bus.Publish(Event{Type: TypeStepChanged})

	require.Len(t, typed, 1)
	assert.Len(t, all, 2)
	assert.NotEmpty(t, typed[0].ID)
	assert.False(t, typed[0].CreatedAt.IsZero())
	assert.Equal(t, "sess-1", typed[0].SessionID)

	var payload struct {
		Appointments int `json:"appointments"`
	}
	require.NoError(t, typed[0].Decode(&payload))
	assert.Equal(t, 2, payload.Appointments)
}

func TestEventBus_PublishJSONError(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())
	err := bus.PublishJSON(TypeBookingFailed, "s", make(chan int))
	assert.Error(t, err)
}
