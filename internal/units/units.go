// Package units provides shared constants and conversions for vehicle speeds.
// The control core reasons in km/h (telemetry, target speed) and m/s
// (PID output, dead reckoning).
package units

// Unit constants
const (
	MPS  = "mps"
	KMPH = "kmph"
	KPH  = "kph"
)

// Vehicle speed envelope in km/h.
const (
	MaxForwardKmh = 70.0
	MaxReverseKmh = -30.0
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// KmhToMps converts km/h to m/s.
func KmhToMps(kmh float64) float64 { return kmh / 3.6 }

// MpsToKmh converts m/s to km/h.
func MpsToKmh(mps float64) float64 { return mps * 3.6 }

// ClampKmh bounds a speed to the vehicle envelope.
func ClampKmh(kmh float64) float64 {
	if kmh > MaxForwardKmh {
		return MaxForwardKmh
	}
	if kmh < MaxReverseKmh {
		return MaxReverseKmh
	}
	return kmh
}

// ClampMps bounds a speed in m/s to the vehicle envelope.
func ClampMps(mps float64) float64 {
	return KmhToMps(ClampKmh(MpsToKmh(mps)))
}

// ConvertSpeed converts a speed from meters per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return MpsToKmh(speedMPS)
	default:
		return speedMPS
	}
}
