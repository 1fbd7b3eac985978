//go:build test

package testutils

import (
	"encoding/json"
	"fmt"
	"strings"

	blelib "github.com/go-ble/ble"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
)

// CharacteristicConfig represents a BLE characteristic configuration for mocking
type CharacteristicConfig struct {
	UUID       string `json:"uuid"`
	Properties string `json:"properties,omitempty"` // e.g., "read,notify"
	Value      []byte `json:"value,omitempty"`
}

// ServiceConfig represents a BLE service configuration for mocking
type ServiceConfig struct {
	UUID            string                 `json:"uuid"`
	Characteristics []CharacteristicConfig `json:"characteristics,omitempty"`
}

// DeviceProfileConfig represents the complete peripheral profile for mocking
type DeviceProfileConfig struct {
	Services []ServiceConfig `json:"services"`
}

// find returns the characteristic config by normalized UUIDs.
func (p DeviceProfileConfig) find(service, characteristic string) (CharacteristicConfig, bool) {
	for _, svc := range p.Services {
		if device.NormalizeUUID(svc.UUID) != service {
			continue
		}
		for _, ch := range svc.Characteristics {
			if device.NormalizeUUID(ch.UUID) == characteristic {
				return ch, true
			}
		}
	}
	return CharacteristicConfig{}, false
}

// PeripheralBuilder builds scripted peripherals, either as a FakeTransport
// for session tests or as a go-ble profile/client pair for transport tests.
type PeripheralBuilder struct {
	profile DeviceProfileConfig
	script  []ConnectBehavior
}

func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{}
}

// WithService adds a service to the profile
func (b *PeripheralBuilder) WithService(uuid string) *PeripheralBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralBuilder) WithCharacteristic(uuid, properties string, value []byte) *PeripheralBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}

	last := len(b.profile.Services) - 1
	b.profile.Services[last].Characteristics = append(b.profile.Services[last].Characteristics, CharacteristicConfig{
		UUID:       uuid,
		Properties: properties,
		Value:      value,
	})
	return b
}

// WithConnectScript sets how consecutive attempts behave; the last entry repeats.
func (b *PeripheralBuilder) WithConnectScript(behaviors ...ConnectBehavior) *PeripheralBuilder {
	b.script = append([]ConnectBehavior(nil), behaviors...)
	return b
}

// FromJSON fills the profile from JSON
func (b *PeripheralBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *PeripheralBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var config DeviceProfileConfig
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		panic(fmt.Sprintf("PeripheralBuilder.FromJSON: failed to unmarshal: %v", err))
	}

	b.profile = config
	return b
}

func (b *PeripheralBuilder) Profile() DeviceProfileConfig {
	return b.profile
}

// BuildTransport creates a FakeTransport using the first scripted behavior.
func (b *PeripheralBuilder) BuildTransport() *FakeTransport {
	behavior := ConnectSucceeds
	if len(b.script) > 0 {
		behavior = b.script[0]
	}
	return NewFakeTransport(b.profile, behavior)
}

// BuildFactory creates a factory handing out one FakeTransport per attempt,
// following the connect script.
func (b *PeripheralBuilder) BuildFactory() *FakeTransportFactory {
	script := b.script
	if len(script) == 0 {
		script = []ConnectBehavior{ConnectSucceeds}
	}
	return &FakeTransportFactory{profile: b.profile, script: script}
}

// BuildBLEProfile converts the profile to go-ble types.
func (b *PeripheralBuilder) BuildBLEProfile() *blelib.Profile {
	profile := &blelib.Profile{}
	for _, svcConfig := range b.profile.Services {
		svc := &blelib.Service{UUID: blelib.MustParse(svcConfig.UUID)}
		for _, charConfig := range svcConfig.Characteristics {
			svc.Characteristics = append(svc.Characteristics, &blelib.Characteristic{
				UUID:     blelib.MustParse(charConfig.UUID),
				Property: parseCharacteristicProperties(charConfig.Properties),
				Value:    charConfig.Value,
			})
		}
		profile.Services = append(profile.Services, svc)
	}
	return profile
}

// BuildBLEClient creates a mocked go-ble client serving the profile.
// Subscribe expectations capture handlers so tests can push notifications
// with mocks.Client.Notify.
func (b *PeripheralBuilder) BuildBLEClient() (*mocks.Client, *blelib.Profile) {
	profile := b.BuildBLEProfile()
	client := mocks.NewClient()

	client.On("DiscoverProfile", true).Return(profile, nil)
	client.On("CancelConnection").Return(nil)

	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			client.On("Subscribe", char, mock.Anything, mock.Anything).Return(nil)
			client.On("Unsubscribe", char, mock.Anything).Return(nil)

			if char.Property&blelib.CharRead != 0 {
				client.On("ReadCharacteristic", char).Return(char.Value, nil)
			} else {
				client.On("ReadCharacteristic", char).Return(nil, fmt.Errorf("characteristic does not support read"))
			}
		}
	}
	return client, profile
}

// parseCharacteristicProperties converts "read,notify"-style strings to
// ble.Property flags; empty means read and notify.
func parseCharacteristicProperties(props string) blelib.Property {
	if props == "" {
		return blelib.CharRead | blelib.CharNotify
	}

	var property blelib.Property
	for _, p := range strings.Split(props, ",") {
		switch strings.TrimSpace(strings.ToLower(p)) {
		case "read":
			property |= blelib.CharRead
		case "write":
			property |= blelib.CharWrite
		case "notify":
			property |= blelib.CharNotify
		case "indicate":
			property |= blelib.CharIndicate
		}
	}
	return property
}

func hasProperty(props, want string) bool {
	if props == "" {
		return want == "read" || want == "notify"
	}
	for _, p := range strings.Split(props, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == want || (want == "notify" && p == "indicate") {
			return true
		}
	}
	return false
}
