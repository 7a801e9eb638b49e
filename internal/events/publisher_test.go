package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gateway-registry/internal/events"
	"gateway-registry/internal/events/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMQTTPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockMessagePublisher(ctrl)
	publisher := events.NewMQTTPublisher(client, "registry/", 1)

	uid := int64(42)
	event := events.Event{
		Type:         events.DeviceAdded,
		SerialNumber: "GATEWAY001",
		UID:          &uid,
		OccurredAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	client.EXPECT().
		Publish("registry/GATEWAY001/device.added", byte(1), false, gomock.Any()).
		DoAndReturn(func(_ string, _ byte, _ bool, payload []byte) error {
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(payload, &decoded))
			assert.Equal(t, "device.added", decoded["event"])
			assert.Equal(t, "GATEWAY001", decoded["serialNumber"])
			assert.EqualValues(t, 42, decoded["uid"])
			return nil
		})

	require.NoError(t, publisher.Publish(context.Background(), event))
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockMessagePublisher(ctrl)
	publisher := events.NewMQTTPublisher(client, "gateways", 0)

	client.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("not connected"))

	err := publisher.Publish(context.Background(), events.Event{Type: events.GatewayDeleted, SerialNumber: "GW"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.deleted")
}

func TestMQTTPublisher_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockMessagePublisher(ctrl)
	publisher := events.NewMQTTPublisher(client, "gateways", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, events.Event{Type: events.GatewayCreated, SerialNumber: "GW"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{Type: events.GatewayCreated}))
}
