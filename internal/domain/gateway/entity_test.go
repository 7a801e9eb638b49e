package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceStatus_IsValid(t *testing.T) {
	assert.True(t, StatusOnline.IsValid())
	assert.True(t, StatusOffline.IsValid())
	assert.False(t, DeviceStatus("Online").IsValid())
	assert.False(t, DeviceStatus("").IsValid())
}

func TestGateway_IsFull(t *testing.T) {
	g := &Gateway{}
	for i := 0; i < MaxPeripheralDevices-1; i++ {
		g.PeripheralDevices = append(g.PeripheralDevices, Device{UID: int64(i)})
	}
	assert.False(t, g.IsFull())
	assert.True(t, g.HasDevice(0))
	assert.False(t, g.HasDevice(MaxPeripheralDevices))

	g.PeripheralDevices = append(g.PeripheralDevices, Device{UID: MaxPeripheralDevices})
	assert.True(t, g.IsFull())
	assert.True(t, g.HasDevice(MaxPeripheralDevices))
}
