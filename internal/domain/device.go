// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxDeviceIDLen = 64

var (
	ErrDeviceIDEmpty   = errors.New("device id empty")
	ErrDeviceIDTooLong = errors.New("device id too long")
)

// DeviceID is the opaque identifier assigned to a monitored device by the
// provisioning layer. Stable for the lifetime of the physical device.
type DeviceID string

func (id DeviceID) Validate() error {
	if len(id) == 0 {
		return ErrDeviceIDEmpty
	}
	if len(id) > MaxDeviceIDLen {
		return ErrDeviceIDTooLong
	}
	return nil
}
