package models

import (
	"time"

	"github.com/google/uuid"
)

// GatewayModel represents the database model for gateways.
type GatewayModel struct {
	ID                uuid.UUID               `gorm:"type:uuid;primaryKey"`
	SerialNumber      string                  `gorm:"column:serial_number;type:varchar(255);not null;uniqueIndex:idx_gateways_serial_number"`
	Name              string                  `gorm:"type:varchar(255);not null"`
	IPv4Address       string                  `gorm:"column:ipv4_address;type:varchar(15);not null;uniqueIndex:idx_gateways_ipv4_address"`
	PeripheralDevices []PeripheralDeviceModel `gorm:"foreignKey:GatewayID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"not null"`
	UpdatedAt         time.Time               `gorm:"not null"`
}

func (GatewayModel) TableName() string {
	return "gateways"
}

// PeripheralDeviceModel is a device row owned by one gateway. The uid index
// spans the whole table, so a uid is unique across all gateways.
type PeripheralDeviceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	GatewayID   uuid.UUID `gorm:"type:uuid;not null;index:idx_peripheral_devices_gateway_id"`
	UID         int64     `gorm:"column:uid;not null;uniqueIndex:idx_peripheral_devices_uid"`
	Vendor      string    `gorm:"type:varchar(255);not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'offline'"`
	Position    int       `gorm:"not null;default:0"`
}

func (PeripheralDeviceModel) TableName() string {
	return "peripheral_devices"
}
