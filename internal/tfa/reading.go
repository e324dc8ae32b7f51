package tfa

import "errors"

// ErrSensorType is returned by Parse when the packet's type tag does not
// match the 30.3215.02 constant. The reading is still fully decoded, but
// callers must not attribute it to a channel slot or report it through the
// normal data path.
var ErrSensorType = errors.New("tfa: packet type tag does not match sensor")

// Reading is one decoded sensor transmission.
type Reading struct {
	// DeviceID is the sensor's 4-bit random id, regenerated whenever its
	// batteries are replaced.
	DeviceID uint8 `json:"device_id"`

	// Channel is the slide-switch channel as printed on the sensor, 1-3.
	Channel int `json:"channel"`

	// TempC is the temperature in degrees Celsius (0.1 degC resolution).
	TempC float64 `json:"temp_c"`

	// Humidity is the relative humidity in percent.
	Humidity uint8 `json:"humidity"`

	BatteryLow bool `json:"battery_low"`

	// Sync is set when the transmission was triggered by the sensor's
	// sync button rather than the periodic report cycle.
	Sync bool `json:"sync"`

	// Type is the raw type tag from bits 0-7.
	Type uint8 `json:"-"`
}

// Parse decodes a resolved candidate into a Reading. If the type tag is
// not SensorType it returns the decoded reading together with
// ErrSensorType.
func Parse(c Candidate) (Reading, error) {
	r := Reading{
		DeviceID:   c.deviceID(),
		Channel:    int(c.channel()) + 1,
		TempC:      0.1 * float64(c.tempRaw()),
		Humidity:   c.humidity(),
		BatteryLow: c.batteryLow(),
		Sync:       c.syncPressed(),
		Type:       c.typeTag(),
	}
	if r.Type != SensorType {
		return r, ErrSensorType
	}
	return r, nil
}
