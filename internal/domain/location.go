package domain

import "time"

// LocationEvent is produced by the persistence collaborator after it has
// durably stored a location record. The relay only fans it out; it never
// validates beyond shape, and never stores it.
type LocationEvent struct {
	DeviceID  DeviceID  `json:"deviceId" validate:"required,max=64"`
	Lat       float64   `json:"lat" validate:"min=-90,max=90"`
	Lon       float64   `json:"lon" validate:"min=-180,max=180"`
	Accuracy  *float64  `json:"accuracy,omitempty" validate:"omitempty,min=0"`
	Timestamp time.Time `json:"timestamp"`
}
