package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atvremote/atvremote-go/pkg/devicemodel"
)

// ExportDevicesYAML writes devices to path in YAML, for interoperability
// with external tooling that doesn't want to parse the controller's
// native JSON store.
func ExportDevicesYAML(path string, devices []devicemodel.Device) error {
	data, err := yaml.Marshal(devices)
	if err != nil {
		return fmt.Errorf("config: marshal device list: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write device list: %w", err)
	}
	return nil
}

// ImportDevicesYAML reads a YAML device list previously written by
// ExportDevicesYAML.
func ImportDevicesYAML(path string) ([]devicemodel.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read device list: %w", err)
	}
	var devices []devicemodel.Device
	if err := yaml.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("config: parse device list: %w", err)
	}
	return devices, nil
}
