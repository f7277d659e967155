// Package config loads the lobby server's configuration snapshot: listen
// ports, which transports are enabled, and the idle/reap timeouts the
// session and room registries are built with. The core server never
// touches Viper or the filesystem directly — it only ever sees the
// *Config value this package produces.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PortsConfig holds the two listen ports the server binds.
type PortsConfig struct {
	BlueBoxHTTP int `mapstructure:"bluebox_http" yaml:"bluebox_http"`
	SFS2XDirect int `mapstructure:"sfs2x_direct" yaml:"sfs2x_direct"`
}

// ProtocolConfig toggles which transports are served.
type ProtocolConfig struct {
	EnableBlueBoxHTTP bool `mapstructure:"enable_bluebox_http" yaml:"enable_bluebox_http"`
	EnableSFS2XDirect bool `mapstructure:"enable_sfs2x_direct" yaml:"enable_sfs2x_direct"`
}

// TimeoutsConfig holds the idle/reap timings described in spec §5.
type TimeoutsConfig struct {
	SessionIdle time.Duration `mapstructure:"session_idle" yaml:"session_idle"`
	RoomIdle    time.Duration `mapstructure:"room_idle" yaml:"room_idle"`
	ReapEvery   time.Duration `mapstructure:"reap_every" yaml:"reap_every"`
	FrameMax    int64         `mapstructure:"frame_max" yaml:"frame_max"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the full configuration snapshot handed to the server.
type Config struct {
	Ports    PortsConfig    `mapstructure:"ports" yaml:"ports"`
	Protocol ProtocolConfig `mapstructure:"protocol" yaml:"protocol"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

const (
	DefaultBlueBoxPort  = 8080
	DefaultSFS2XPort    = 9933
	DefaultSessionIdle  = 30 * time.Minute
	DefaultRoomIdle     = 60 * time.Minute
	DefaultReapEvery    = 60 * time.Second
	DefaultFrameMax     = 16 << 20 // 16 MiB
	DefaultShutdownWait = 5 * time.Second
)

// Default returns the configuration described in spec §6, used when no
// config file is supplied and by tests that don't care about file I/O.
func Default() *Config {
	return &Config{
		Ports: PortsConfig{
			BlueBoxHTTP: DefaultBlueBoxPort,
			SFS2XDirect: DefaultSFS2XPort,
		},
		Protocol: ProtocolConfig{
			EnableBlueBoxHTTP: true,
			EnableSFS2XDirect: true,
		},
		Timeouts: TimeoutsConfig{
			SessionIdle: DefaultSessionIdle,
			RoomIdle:    DefaultRoomIdle,
			ReapEvery:   DefaultReapEvery,
			FrameMax:    DefaultFrameMax,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file (if configPath is non-empty
// and exists) layered under LOBBY_* environment variables and the
// defaults above. An empty configPath with no LOBBY_* overrides yields
// Default().
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaultsToViper(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaultsToViper(v *viper.Viper) {
	d := Default()
	v.SetDefault("ports.bluebox_http", d.Ports.BlueBoxHTTP)
	v.SetDefault("ports.sfs2x_direct", d.Ports.SFS2XDirect)
	v.SetDefault("protocol.enable_bluebox_http", d.Protocol.EnableBlueBoxHTTP)
	v.SetDefault("protocol.enable_sfs2x_direct", d.Protocol.EnableSFS2XDirect)
	v.SetDefault("timeouts.session_idle", d.Timeouts.SessionIdle)
	v.SetDefault("timeouts.room_idle", d.Timeouts.RoomIdle)
	v.SetDefault("timeouts.reap_every", d.Timeouts.ReapEvery)
	v.SetDefault("timeouts.frame_max", d.Timeouts.FrameMax)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks the bounds the spec implies: valid port numbers and
// strictly positive timeouts.
func Validate(cfg *Config) error {
	if cfg.Ports.BlueBoxHTTP <= 0 || cfg.Ports.BlueBoxHTTP > 65535 {
		return fmt.Errorf("ports.bluebox_http out of range: %d", cfg.Ports.BlueBoxHTTP)
	}
	if cfg.Ports.SFS2XDirect <= 0 || cfg.Ports.SFS2XDirect > 65535 {
		return fmt.Errorf("ports.sfs2x_direct out of range: %d", cfg.Ports.SFS2XDirect)
	}
	if cfg.Timeouts.SessionIdle <= 0 {
		return fmt.Errorf("timeouts.session_idle must be positive")
	}
	if cfg.Timeouts.RoomIdle <= 0 {
		return fmt.Errorf("timeouts.room_idle must be positive")
	}
	if cfg.Timeouts.ReapEvery <= 0 {
		return fmt.Errorf("timeouts.reap_every must be positive")
	}
	if cfg.Timeouts.FrameMax <= 0 {
		return fmt.Errorf("timeouts.frame_max must be positive")
	}
	return nil
}
