package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

// EventType names a registry change.
type EventType string

const (
	GatewayCreated EventType = "gateway.created"
	GatewayUpdated EventType = "gateway.updated"
	GatewayDeleted EventType = "gateway.deleted"
	DeviceAdded    EventType = "device.added"
	DeviceRemoved  EventType = "device.removed"
)

// Event is published after a write has been committed.
type Event struct {
	Type         EventType `json:"event"`
	SerialNumber string    `json:"serialNumber"`
	UID          *int64    `json:"uid,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher delivers registry events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// MessagePublisher is the subset of an MQTT client used for events.
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher publishes events as JSON to <prefix>/<serialNumber>/<event>.
type MQTTPublisher struct {
	client MessagePublisher
	prefix string
	qos    byte
}

func NewMQTTPublisher(client MessagePublisher, prefix string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		qos:    qos,
	}
}

func (p *MQTTPublisher) Topic(event Event) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, event.SerialNumber, event.Type)
}

func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.client.Publish(p.Topic(event), p.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
