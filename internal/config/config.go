// Package config parses and validates the flags that shape one run of the
// passthrough engine: serial ports and baud rates, the log sink, and
// optional overrides of the engine's default timer periods.
package config

import (
	"errors"
	"flag"
	"time"
)

// Config holds everything a cmd/ entrypoint needs to construct an Engine
// and its transports.
type Config struct {
	SerialPort1 string
	BaudRate1   int
	SerialPort2 string
	BaudRate2   int

	// SerialNumber, if set, tells internal/locator to resolve SerialPort1/2
	// by USB serial number instead of using the fixed paths above.
	SerialNumber string

	LogPath  string
	LogLevel string

	RedisAddr string
	RedisPass string
	RedisDB   int

	StatusPeriod   time.Duration
	SettingsPeriod time.Duration
	ShutdownPeriod time.Duration
	WriteLockHold  time.Duration
}

// RegisterFlags binds Config's fields to fs with the given
// defaults, mirroring the flat flag-variable style used for the serial/
// Redis configuration of the host service this module bridges to.
func RegisterFlags(fs *flag.FlagSet, defaults Config) *Config {
	cfg := &Config{}
	fs.StringVar(&cfg.SerialPort1, "serial1", defaults.SerialPort1, "first serial device path (controller or heater side, order irrelevant)")
	fs.IntVar(&cfg.BaudRate1, "baud1", defaults.BaudRate1, "first serial device baud rate")
	fs.StringVar(&cfg.SerialPort2, "serial2", defaults.SerialPort2, "second serial device path")
	fs.IntVar(&cfg.BaudRate2, "baud2", defaults.BaudRate2, "second serial device baud rate")
	fs.StringVar(&cfg.SerialNumber, "serial-number", defaults.SerialNumber, "USB serial number prefix to resolve both ports by, overrides serial1/serial2 paths")
	fs.StringVar(&cfg.LogPath, "log-path", defaults.LogPath, "path to the log file (required)")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug, info, warning, critical (validated only; the engine logger writes every level)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", defaults.RedisAddr, "Redis server address for the state bridge")
	fs.StringVar(&cfg.RedisPass, "redis-pass", defaults.RedisPass, "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", defaults.RedisDB, "Redis database number")
	fs.DurationVar(&cfg.StatusPeriod, "status-period", defaults.StatusPeriod, "status poll period")
	fs.DurationVar(&cfg.SettingsPeriod, "settings-period", defaults.SettingsPeriod, "settings poll period")
	fs.DurationVar(&cfg.ShutdownPeriod, "shutdown-period", defaults.ShutdownPeriod, "shutdown retry period")
	fs.DurationVar(&cfg.WriteLockHold, "write-lock-hold", defaults.WriteLockHold, "write-lock hold duration")
	return cfg
}

// Default returns the baseline configuration: both serial ports at
// 2400 baud, 8 data bits, no parity, 1 stop bit (the Autoterm panel bus
// default), info-level logging, and local Redis.
func Default() Config {
	return Config{
		SerialPort1:    "/dev/ttyUSB0",
		BaudRate1:      2400,
		SerialPort2:    "/dev/ttyUSB1",
		BaudRate2:      2400,
		LogLevel:       "info",
		RedisAddr:      "localhost:6379",
		StatusPeriod:   5 * time.Second,
		SettingsPeriod: 5 * time.Second,
		ShutdownPeriod: 10 * time.Second,
		WriteLockHold:  10 * time.Second,
	}
}

// Validate reports the first configuration problem found, if any.
func (c Config) Validate() error {
	if c.SerialNumber == "" {
		if c.SerialPort1 == "" {
			return errors.New("config: serial1 must not be empty")
		}
		if c.SerialPort2 == "" {
			return errors.New("config: serial2 must not be empty")
		}
		if c.SerialPort1 == c.SerialPort2 {
			return errors.New("config: serial1 and serial2 must not be the same device")
		}
	}
	if c.BaudRate1 <= 0 || c.BaudRate2 <= 0 {
		return errors.New("config: baud rates must be positive")
	}
	if c.LogPath == "" {
		return errors.New("config: log-path must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "critical":
	default:
		return errors.New("config: log-level must be one of debug, info, warning, critical")
	}
	if c.StatusPeriod <= 0 || c.SettingsPeriod <= 0 || c.ShutdownPeriod <= 0 || c.WriteLockHold <= 0 {
		return errors.New("config: timer periods must be positive")
	}
	return nil
}
