package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Bluetooth SIG base UUID, written without dashes around a 16-bit assigned number.
const (
	sigBasePrefix = "0000"
	sigBaseSuffix = "00001000800000805f9b34fb"
)

// Well-known assigned numbers used by the bundled profiles.
const (
	HeartRateService          = "180d"
	HeartRateMeasurement      = "2a37"
	BatteryService            = "180f"
	BatteryLevel              = "2a19"
	CyclingSpeedCadence       = "1816"
	CSCMeasurement            = "2a5b"
	ClientCharacteristicCfg   = "2902"
	DeviceInformationService  = "180a"
	ManufacturerNameCharacter = "2a29"
)

// AssignedNumberUUID expands a 16-bit assigned number to its full 128-bit form,
// e.g. 0x180D -> 0000180d-0000-1000-8000-00805f9b34fb.
func AssignedNumberUUID(assigned uint16) string {
	return fmt.Sprintf("0000%04x-0000-1000-8000-00805f9b34fb", assigned)
}

// NormalizeUUID converts a UUID to the identifier used for channels:
// lowercase, no dashes, no 0x prefix. 128-bit UUIDs on the Bluetooth SIG base
// are shortened to their 16-bit form; anything else is returned as is.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "-", "")

	if len(s) != 32 {
		return s
	}
	if _, err := uuid.Parse(s); err != nil {
		return s
	}
	if strings.HasPrefix(s, sigBasePrefix) && strings.HasSuffix(s, sigBaseSuffix) {
		return s[4:8]
	}
	return s
}

// NormalizeUUIDs normalizes every element, keeping order.
func NormalizeUUIDs(uuids []string) []string {
	out := make([]string, len(uuids))
	for i, u := range uuids {
		out[i] = NormalizeUUID(u)
	}
	return out
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns normalized UUID strings or an error.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, u := range uuids {
		if u == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		normalized := NormalizeUUID(u)
		if !isHex(normalized) || (len(normalized) != 4 && len(normalized) != 8 && len(normalized) != 32) {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, u)
		}
		result = append(result, normalized)
	}
	return result, nil
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
