package controller

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atvremote/atvremote-go/pkg/devicemodel"
)

// load reads the persisted paired-device list. A missing file is not an
// error: it means no device has been paired yet.
func (c *Controller) load() error {
	data, err := os.ReadFile(c.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("controller: read device list: %w", err)
	}

	var devices []devicemodel.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return fmt.Errorf("controller: parse device list: %w", err)
	}
	for _, d := range devices {
		c.devices[d.ID] = d
	}
	return nil
}

// saveLocked writes the current paired-device list to storePath. Callers
// must hold c.mu.
func (c *Controller) saveLocked() error {
	devices := make([]devicemodel.Device, 0, len(c.devices))
	for _, d := range c.devices {
		devices = append(devices, d)
	}

	if dir := filepath.Dir(c.storePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("controller: create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return fmt.Errorf("controller: marshal device list: %w", err)
	}
	if err := os.WriteFile(c.storePath, data, 0600); err != nil {
		return fmt.Errorf("controller: write device list: %w", err)
	}
	return nil
}
