package gateway

import (
	"context"
	"time"

	domainGateway "gateway-registry/internal/domain/gateway"
	"gateway-registry/internal/events"
	"gateway-registry/internal/logger"

	"go.uber.org/zap"
)

// Service implements gateway use cases
type Service struct {
	gatewayRepo domainGateway.Repository
	publisher   events.Publisher
	now         func() time.Time
}

// NewService creates a new gateway service. A nil publisher drops events.
func NewService(gatewayRepo domainGateway.Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		gatewayRepo: gatewayRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *Service) ListGateways(ctx context.Context) ([]GatewayResponse, error) {
	gateways, err := s.gatewayRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]GatewayResponse, len(gateways))
	for i, gw := range gateways {
		responses[i] = *ToGatewayResponse(gw)
	}

	return responses, nil
}

func (s *Service) GetGateway(ctx context.Context, serialNumber string) (*GatewayResponse, error) {
	gw, err := s.gatewayRepo.GetBySerial(ctx, serialNumber)
	if err != nil {
		return nil, err
	}

	return ToGatewayResponse(gw), nil
}

func (s *Service) CreateGateway(ctx context.Context, payload map[string]any) (*GatewayResponse, error) {
	gw, err := ParseGateway(payload)
	if err != nil {
		return nil, err
	}

	// Advisory only; the unique index decides under concurrent creates.
	exists, err := s.gatewayRepo.ExistsBySerial(ctx, gw.SerialNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domainGateway.ErrGatewayAlreadyExists
	}

	if err := s.gatewayRepo.Create(ctx, gw); err != nil {
		return nil, err
	}

	created, err := s.gatewayRepo.GetBySerial(ctx, gw.SerialNumber)
	if err != nil {
		return nil, err
	}

	logger.Info("Gateway created",
		zap.String("serial_number", created.SerialNumber),
		zap.String("ipv4_address", created.IPv4Address),
		zap.Int("device_count", len(created.PeripheralDevices)),
		zap.String("event", string(events.GatewayCreated)),
	)
	s.publish(ctx, events.GatewayCreated, created.SerialNumber, nil)

	return ToGatewayResponse(created), nil
}

// UpdateGateway applies a partial update. The serial number in the path is
// authoritative and overrides any serialNumber in the payload.
func (s *Service) UpdateGateway(ctx context.Context, serialNumber string, payload map[string]any) (*GatewayResponse, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	projected := ProjectDeviceFields(payload)
	projected[domainGateway.FieldSerialNumber] = serialNumber

	updated, err := s.gatewayRepo.Update(ctx, serialNumber, func(current *domainGateway.Gateway) (*domainGateway.Gateway, error) {
		return MergeGateway(current, projected)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Gateway updated",
		zap.String("serial_number", updated.SerialNumber),
		zap.Int("device_count", len(updated.PeripheralDevices)),
		zap.String("event", string(events.GatewayUpdated)),
	)
	s.publish(ctx, events.GatewayUpdated, updated.SerialNumber, nil)

	return ToGatewayResponse(updated), nil
}

func (s *Service) DeleteGateway(ctx context.Context, serialNumber string) (*DeleteGatewayResponse, error) {
	deleted, err := s.gatewayRepo.Delete(ctx, serialNumber)
	if err != nil {
		return nil, err
	}

	logger.Info("Gateway deleted",
		zap.String("serial_number", deleted.SerialNumber),
		zap.Int("devices_removed", len(deleted.PeripheralDevices)),
		zap.String("event", string(events.GatewayDeleted)),
	)
	s.publish(ctx, events.GatewayDeleted, deleted.SerialNumber, nil)

	return &DeleteGatewayResponse{SerialNumber: deleted.SerialNumber}, nil
}

func (s *Service) AddDevice(ctx context.Context, serialNumber string, payload map[string]any) (*GatewayResponse, error) {
	var projected map[string]any
	if payload != nil {
		projected = projectDevice(payload)
	}

	device, err := ParseDevice(projected, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.gatewayRepo.AddDevice(ctx, serialNumber, device)
	if err != nil {
		return nil, err
	}

	logger.Info("Device added to gateway",
		zap.String("serial_number", serialNumber),
		zap.Int64("uid", device.UID),
		zap.String("vendor", device.Vendor),
		zap.String("event", string(events.DeviceAdded)),
	)
	s.publish(ctx, events.DeviceAdded, serialNumber, &device.UID)

	return ToGatewayResponse(updated), nil
}

func (s *Service) RemoveDevice(ctx context.Context, serialNumber string, uid int64) error {
	if err := s.gatewayRepo.RemoveDevice(ctx, serialNumber, uid); err != nil {
		return err
	}

	logger.Info("Device removed from gateway",
		zap.String("serial_number", serialNumber),
		zap.Int64("uid", uid),
		zap.String("event", string(events.DeviceRemoved)),
	)
	s.publish(ctx, events.DeviceRemoved, serialNumber, &uid)

	return nil
}

// publish runs after the write is committed, so a delivery failure is logged
// rather than returned.
func (s *Service) publish(ctx context.Context, eventType events.EventType, serialNumber string, uid *int64) {
	event := events.Event{
		Type:         eventType,
		SerialNumber: serialNumber,
		UID:          uid,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish registry event",
			zap.String("event", string(eventType)),
			zap.String("serial_number", serialNumber),
			zap.Error(err),
		)
	}
}
