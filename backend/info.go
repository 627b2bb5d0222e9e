package backend

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/b0bbywan/go-odio-btmedia/backend/systemd"
	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

const (
	UNKNOWN         = "unknown"
	OS_RELEASE_FILE = "/etc/os-release"
)

var osVersion string

// bluezState is swapped in tests.
var bluezState = systemd.BluezState

type ServerDeviceInfo struct {
	Hostname   string   `json:"hostname"`
	OSPlatform string   `json:"os_platform"`
	OSVersion  string   `json:"os_version"`
	APISW      string   `json:"api_sw"`
	APIVersion string   `json:"api_version"`
	Backends   Backends `json:"backends"`

	Bluez *systemd.UnitState `json:"bluez,omitempty"`
}

type Backends struct {
	Bluetooth bool   `json:"bluetooth"`
	Volume    string `json:"volume,omitempty"`
	Zeroconf  bool   `json:"zeroconf"`
}

func init() {
	osVersion = readOSRelease()
}

func parseKeyValue(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		out[key] = strings.Trim(value, `"`)
	}

	return out, scanner.Err()
}

func readOSRelease() string {
	file, err := os.Open(OS_RELEASE_FILE)
	if err != nil {
		return UNKNOWN
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("[backend] failed to close %s: %v", OS_RELEASE_FILE, err)
		}
	}()

	var content map[string]string
	content, err = parseKeyValue(file)
	if err != nil {
		logger.Debug("[backend] failed to parse %s: %v", OS_RELEASE_FILE, err)
	}

	switch {
	case content["PRETTY_NAME"] != "":
		return content["PRETTY_NAME"]
	case content["NAME"] != "":
		return content["NAME"]
	default:
		return UNKNOWN
	}
}

// GetServerDeviceInfo describes the host and the enabled backends. The
// bluetooth.service state is best effort and omitted when systemd cannot be
// reached.
func (b *Backend) GetServerDeviceInfo(ctx context.Context) (ServerDeviceInfo, error) {
	hostname, err := os.Hostname()
	if err != nil {
		logger.Debug("[backend] failed to get hostname: %v", err)
		hostname = UNKNOWN
	}

	platform := runtime.GOOS + "/" + runtime.GOARCH

	info := ServerDeviceInfo{
		Hostname:   hostname,
		OSPlatform: platform,
		OSVersion:  osVersion,
		APISW:      config.AppName,
		APIVersion: config.AppVersion,
		Backends: Backends{
			Bluetooth: b.Bluetooth != nil,
			Zeroconf:  b.Zeroconf != nil,
		},
	}
	if b.Volume != nil {
		info.Backends.Volume = b.Volume.Name()
	}

	if b.Bluetooth != nil {
		state, err := bluezState(ctx)
		if err != nil {
			logger.Debug("[backend] failed to query %s: %v", systemd.BluezUnit, err)
		} else {
			info.Bluez = state
		}
	}

	return info, nil
}
