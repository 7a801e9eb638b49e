package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrGatewayNotFound    = errors.New("Gateway not found")
	ErrDeviceNotFound     = errors.New("Device not found")
	ErrDeviceLimitReached = errors.New("No more than 10 devices are allowed per gateway")

	ErrGatewayAlreadyExists = &ConflictError{Field: FieldSerialNumber}
)

// Field names as they appear in payloads and error messages.
const (
	FieldSerialNumber      = "serialNumber"
	FieldName              = "name"
	FieldIPv4Address       = "ipv4Address"
	FieldPeripheralDevices = "peripheralDevices"
	FieldUID               = "uid"
	FieldVendor            = "vendor"
	FieldDateCreated       = "dateCreated"
	FieldStatus            = "status"
)

// ConflictError is returned when a write would break a uniqueness invariant.
// Value is empty when the storage layer did not report it.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case FieldSerialNumber:
		if e.Value == "" {
			return "Gateway already exists"
		}
		return fmt.Sprintf("Gateway with serialNumber %s already exists", e.Value)
	case FieldUID:
		if e.Value == "" {
			return "Device with this uid already exists"
		}
		return fmt.Sprintf("Device with uid %s already exists", e.Value)
	case "":
		return "Gateway conflicts with an existing record"
	default:
		if e.Value == "" {
			return fmt.Sprintf("Gateway with this %s already exists", e.Field)
		}
		return fmt.Sprintf("Gateway with %s %s already exists", e.Field, e.Value)
	}
}

// Is matches any ConflictError on the same field.
func (e *ConflictError) Is(target error) bool {
	var t *ConflictError
	if !errors.As(target, &t) {
		return false
	}
	return t.Field == e.Field
}
