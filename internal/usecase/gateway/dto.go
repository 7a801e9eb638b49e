package gateway

import (
	"time"

	domainGateway "gateway-registry/internal/domain/gateway"
)

type DeviceResponse struct {
	UID         int64                      `json:"uid"`
	Vendor      string                     `json:"vendor"`
	DateCreated time.Time                  `json:"dateCreated"`
	Status      domainGateway.DeviceStatus `json:"status"`
}

type GatewayResponse struct {
	SerialNumber      string           `json:"serialNumber"`
	Name              string           `json:"name"`
	IPv4Address       string           `json:"ipv4Address"`
	PeripheralDevices []DeviceResponse `json:"peripheralDevices"`
}

type DeleteGatewayResponse struct {
	SerialNumber string `json:"serialNumber"`
}

func ToDeviceResponse(d *domainGateway.Device) DeviceResponse {
	return DeviceResponse{
		UID:         d.UID,
		Vendor:      d.Vendor,
		DateCreated: d.DateCreated,
		Status:      d.Status,
	}
}

func ToGatewayResponse(g *domainGateway.Gateway) *GatewayResponse {
	if g == nil {
		return nil
	}
	devices := make([]DeviceResponse, len(g.PeripheralDevices))
	for i := range g.PeripheralDevices {
		devices[i] = ToDeviceResponse(&g.PeripheralDevices[i])
	}
	return &GatewayResponse{
		SerialNumber:      g.SerialNumber,
		Name:              g.Name,
		IPv4Address:       g.IPv4Address,
		PeripheralDevices: devices,
	}
}
