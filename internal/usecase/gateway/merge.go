package gateway

import (
	domainGateway "gateway-registry/internal/domain/gateway"
)

// MergeGateway applies an update payload over the stored gateway. The payload
// must pass the full shape check; fields it omits keep their stored values and
// the serial number is never taken from it. The merged result is validated
// again as a whole.
func MergeGateway(current *domainGateway.Gateway, payload map[string]any) (*domainGateway.Gateway, error) {
	parsed, err := ParseGateway(payload)
	if err != nil {
		return nil, err
	}

	merged := *current
	merged.PeripheralDevices = append([]domainGateway.Device(nil), current.PeripheralDevices...)

	if _, ok := payload[domainGateway.FieldName]; ok {
		merged.Name = parsed.Name
	}
	if _, ok := payload[domainGateway.FieldIPv4Address]; ok {
		merged.IPv4Address = parsed.IPv4Address
	}
	if _, ok := payload[domainGateway.FieldPeripheralDevices]; ok {
		merged.PeripheralDevices = parsed.PeripheralDevices
	}
	merged.SerialNumber = current.SerialNumber

	if err := ValidateAggregate(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}
