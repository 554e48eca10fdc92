package events_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/anjiri1684/mixlab_studio/events"
	"github.com/stretchr/testify/require"
)

func TestEncode_WrapsPayload(t *testing.T) {
	b, err := events.Encode("booking.created", map[string]string{"booking_id": "b-1"})
	require.NoError(t, err)

	var decoded struct {
		EventType string            `json:"event_type"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "booking.created", decoded.EventType)
	require.Equal(t, "b-1", decoded.Data["booking_id"])
}

func TestEncode_RejectsUnencodable(t *testing.T) {
	_, err := events.Encode("bad", math.Inf(1))
	require.Error(t, err)
}

func TestNew_NoneDiscards(t *testing.T) {
	p, err := events.New(events.Options{Broker: "none"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), "booking.created", nil))
	require.NoError(t, p.Close())
}

func TestNew_UnknownBroker(t *testing.T) {
	_, err := events.New(events.Options{Broker: "kafka"})
	require.Error(t, err)
}
