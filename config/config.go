package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-odio-btmedia/logger"
)

const (
	AppName     = "odio-btmedia"
	AppVersion  = "0.1.0"
	envPrefix   = "ODIO_BTMEDIA"
	serviceType = "_http._tcp"
	domain      = "local."
)

const (
	VolumeBackendPulse  = "pulseaudio"
	VolumeBackendAmixer = "amixer"
)

type Config struct {
	Api       *ApiConfig
	Bluetooth *BluetoothConfig
	Volume    *VolumeConfig
	Zeroconf  *ZeroConfig
	Systemd   *SystemdConfig
	LogLevel  logger.Level
	LogLevels map[string]logger.Level

	v *viper.Viper
}

type ApiConfig struct {
	Enabled     bool
	Port        int
	Listens     []string
	CORSOrigins []string
	SSE         bool
	WebSocket   bool
}

type BluetoothConfig struct {
	Enabled bool
	Timeout time.Duration
	Adapter string

	SettleAttempts int
	SettleInitial  time.Duration
	SettleMax      time.Duration

	TrackAlbum   bool
	TrackPadding bool
}

type VolumeConfig struct {
	Enabled       bool
	Backend       string
	Step          int
	Control       string
	XDGRuntimeDir string
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
	Listen       []net.Interface
}

type SystemdConfig struct {
	Notify bool
}

func parseLogLevel(levelStr string) logger.Level {
	return logger.ParseLevel(levelStr)
}

func parseLogLevels(raw map[string]string) map[string]logger.Level {
	if len(raw) == 0 {
		return nil
	}
	levels := make(map[string]logger.Level, len(raw))
	for component, lvl := range raw {
		levels[strings.ToLower(component)] = parseLogLevel(lvl)
	}
	return levels
}

func interfaceForIP(ip string) (*net.Interface, error) {
	if ip == "127.0.0.1" || ip == "localhost" {
		return nil, nil
	}
	listenIP := net.ParseIP(ip)
	if listenIP == nil {
		return nil, fmt.Errorf("invalid bind: %s", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			var ifaceIP net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}

			if ifaceIP != nil && ifaceIP.Equal(listenIP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found for IP %s", ip)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "WARN")
	v.SetDefault("bind", "127.0.0.1")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8090)
	v.SetDefault("api.cors.origins", []string{})
	v.SetDefault("api.sse", true)
	v.SetDefault("api.websocket", true)

	v.SetDefault("bluetooth.enabled", true)
	v.SetDefault("bluetooth.timeout", "5s")
	v.SetDefault("bluetooth.adapter", "")
	v.SetDefault("bluetooth.settle.attempts", 6)
	v.SetDefault("bluetooth.settle.initial", "250ms")
	v.SetDefault("bluetooth.settle.max", "1s")
	v.SetDefault("bluetooth.track.album", false)
	v.SetDefault("bluetooth.track.padding", true)

	v.SetDefault("volume.enabled", true)
	v.SetDefault("volume.backend", VolumeBackendPulse)
	v.SetDefault("volume.step", 5)
	v.SetDefault("volume.control", "Master")

	v.SetDefault("zeroconf.enabled", false)
	v.SetDefault("systemd.notify", true)
}

// New loads the configuration from file, environment and defaults.
func New() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")                       // name of config file (without extension)
	v.SetConfigType("yaml")                         // config file format
	v.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("[config] failed to read config: %v", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	port := v.GetInt("api.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	bind := v.GetString("bind")
	var interfaces []net.Interface
	inet, err := interfaceForIP(bind)
	if err == nil && inet != nil {
		interfaces = append(interfaces, *inet)
	}

	listens := []string{net.JoinHostPort(bind, fmt.Sprint(port))}
	if bind != "127.0.0.1" && bind != "localhost" {
		listens = append(listens, net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
	}

	apiCfg := ApiConfig{
		Enabled:     v.GetBool("api.enabled"),
		Port:        port,
		Listens:     listens,
		CORSOrigins: v.GetStringSlice("api.cors.origins"),
		SSE:         v.GetBool("api.sse"),
		WebSocket:   v.GetBool("api.websocket"),
	}

	btTimeout := v.GetDuration("bluetooth.timeout")
	if btTimeout <= 0 {
		btTimeout = 5 * time.Second
	}
	attempts := v.GetInt("bluetooth.settle.attempts")
	if attempts < 0 {
		attempts = 0
	}
	settleInitial := v.GetDuration("bluetooth.settle.initial")
	if settleInitial <= 0 {
		settleInitial = 250 * time.Millisecond
	}
	settleMax := v.GetDuration("bluetooth.settle.max")
	if settleMax < settleInitial {
		settleMax = settleInitial
	}

	btCfg := BluetoothConfig{
		Enabled:        v.GetBool("bluetooth.enabled"),
		Timeout:        btTimeout,
		Adapter:        v.GetString("bluetooth.adapter"),
		SettleAttempts: attempts,
		SettleInitial:  settleInitial,
		SettleMax:      settleMax,
		TrackAlbum:     v.GetBool("bluetooth.track.album"),
		TrackPadding:   v.GetBool("bluetooth.track.padding"),
	}

	backend := strings.ToLower(v.GetString("volume.backend"))
	if backend != VolumeBackendPulse && backend != VolumeBackendAmixer {
		return nil, fmt.Errorf("invalid volume backend: %q", backend)
	}
	step := v.GetInt("volume.step")
	if step <= 0 || step > 100 {
		return nil, fmt.Errorf("invalid volume step: %d", step)
	}

	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		xdgRuntimeDir = fmt.Sprintf("/run/user/%d", os.Getuid())
	}

	volCfg := VolumeConfig{
		Enabled:       v.GetBool("volume.enabled"),
		Backend:       backend,
		Step:          step,
		Control:       v.GetString("volume.control"),
		XDGRuntimeDir: xdgRuntimeDir,
	}

	zerocfg := ZeroConfig{
		Enabled:      v.GetBool("zeroconf.enabled"),
		InstanceName: AppName,
		ServiceType:  serviceType,
		Port:         port,
		Domain:       domain,
		TxtRecords:   []string{"version=" + AppVersion},
		Listen:       interfaces,
	}

	cfg := Config{
		Api:       &apiCfg,
		Bluetooth: &btCfg,
		Volume:    &volCfg,
		Zeroconf:  &zerocfg,
		Systemd:   &SystemdConfig{Notify: v.GetBool("systemd.notify")},
		LogLevel:  parseLogLevel(v.GetString("LogLevel")),
		LogLevels: parseLogLevels(v.GetStringMapString("log.levels")),
		v:         v,
	}

	return &cfg, nil
}

// Watch reapplies log levels whenever the config file changes. Other keys
// need a restart.
func (c *Config) Watch() {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.reloadLogLevels(e)
	})
	c.v.WatchConfig()
	logger.Debug("[config] watching %s", c.v.ConfigFileUsed())
}

func (c *Config) reloadLogLevels(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	level := parseLogLevel(c.v.GetString("LogLevel"))
	levels := parseLogLevels(c.v.GetStringMapString("log.levels"))
	logger.SetLevel(level)
	logger.SetComponentLevels(levels)
	logger.Info("[config] %s changed, log level now %s", e.Name, level)
}
