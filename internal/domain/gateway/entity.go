package gateway

import (
	"time"

	"github.com/google/uuid"
)

// MaxPeripheralDevices is the capacity of a single gateway.
const MaxPeripheralDevices = 10

// Gateway is the aggregate root. Devices have no identity outside it.
type Gateway struct {
	ID                uuid.UUID
	SerialNumber      string   `validate:"required"`
	Name              string   `validate:"required"`
	IPv4Address       string   `validate:"required,ipv4addr"`
	PeripheralDevices []Device `validate:"max=10,dive"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Device is a peripheral embedded in a Gateway. UID is unique system-wide.
type Device struct {
	UID         int64
	Vendor      string       `validate:"required"`
	DateCreated time.Time    `validate:"required"`
	Status      DeviceStatus `validate:"required,device_status"`
}

// DeviceStatus represents the connectivity status of a device
type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
)

// IsValid reports whether s is one of the known statuses.
func (s DeviceStatus) IsValid() bool {
	return s == StatusOnline || s == StatusOffline
}

// HasDevice reports whether a device with uid is attached.
func (g *Gateway) HasDevice(uid int64) bool {
	for _, d := range g.PeripheralDevices {
		if d.UID == uid {
			return true
		}
	}
	return false
}

// IsFull reports whether the gateway is at capacity.
func (g *Gateway) IsFull() bool {
	return len(g.PeripheralDevices) >= MaxPeripheralDevices
}
