// Package inventory reads the device list and locates per-device
// configuration snippets.
package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CSV header columns.
const (
	ColumnHostname = "hostname"
	ColumnMgmtIP   = "mgmt_ip"
)

// ConfigExt is the extension of configuration snippets; SetExt replaces it
// on the rendered output.
const (
	ConfigExt = ".config"
	SetExt    = ".set.config"
)

// Device is one row of the device list.
type Device struct {
	Hostname string
	MgmtIP   string
}

// Addr is the address to dial: the management IP, or the hostname when the
// row has none.
func (d Device) Addr() string {
	if d.MgmtIP != "" {
		return d.MgmtIP
	}
	return d.Hostname
}

// ReadDevices loads the device list from a CSV file.
func ReadDevices(path string) ([]Device, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("Failed to open device list '%s': %v", path, err)
		return nil, fmt.Errorf("failed to open device list: %w", err)
	}
	defer f.Close()

	devices, err := ReadDevicesFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("Loaded %d devices from %s", len(devices), path)
	return devices, nil
}

// ReadDevicesFrom parses a CSV device list with a header row naming the
// hostname and mgmt_ip columns. Column order is free and extra columns are
// ignored.
func ReadDevicesFrom(r io.Reader) ([]Device, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	hostCol, ipCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case ColumnHostname:
			hostCol = i
		case ColumnMgmtIP:
			ipCol = i
		}
	}
	if hostCol < 0 || ipCol < 0 {
		return nil, fmt.Errorf("header must contain %q and %q columns", ColumnHostname, ColumnMgmtIP)
	}

	var devices []Device
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read device list: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		line, _ := reader.FieldPos(0)
		if hostCol >= len(record) || ipCol >= len(record) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(record))
		}
		d := Device{
			Hostname: strings.TrimSpace(record[hostCol]),
			MgmtIP:   strings.TrimSpace(record[ipCol]),
		}
		if d.Hostname == "" {
			return nil, fmt.Errorf("line %d: empty hostname", line)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// ConfigFiles lists <configDir>/<hostname>/*.config in name order. A missing
// host directory is not an error.
func ConfigFiles(configDir, hostname string) ([]string, error) {
	hostDir := filepath.Join(configDir, hostname)
	if _, err := os.Stat(hostDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warnf("Config directory %s does not exist", hostDir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(hostDir, "*"+ConfigExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	sort.Strings(files)
	log.Infof("Found %d config files for %s", len(files), hostname)
	return files, nil
}

// SetFileName names the rendered output of a configuration snippet.
func SetFileName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, ConfigExt) + SetExt
}
