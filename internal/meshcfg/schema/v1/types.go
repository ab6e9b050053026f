// Package v1 defines the typed model of the daemon's YAML configuration as
// this tool reads and writes it.
package v1

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

// Config mirrors /etc/meshtasticd/config.yaml. Top-level sections the tool
// does not manage land in Extra and survive a load/save round trip; fields
// inside managed sections are still decoded strictly.
type Config struct {
	Lora      LoraSection       `yaml:"Lora"`
	Logging   LoggingSection    `yaml:"Logging,omitempty"`
	Webserver *WebserverSection `yaml:"Webserver,omitempty"`
	MQTT      *MQTTSection      `yaml:"MQTT,omitempty"`

	// Sections the daemon understands but this tool leaves alone
	// (General, Display, I2C, ...).
	Extra map[string]yaml.Node `yaml:",inline"`
}

type LoraSection struct {
	Module string `yaml:"Module,omitempty"`
	Region string `yaml:"Region,omitempty"`
	Preset string `yaml:"Preset,omitempty"`

	// Advanced parameters; zero means "daemon default".
	Bandwidth       int `yaml:"Bandwidth,omitempty"`
	SpreadingFactor int `yaml:"SpreadingFactor,omitempty"`
	CodingRate      int `yaml:"CodingRate,omitempty"`
	TxPower         int `yaml:"TxPower,omitempty"`

	// Transport: SPI device node or USB serial port.
	SPIDev string `yaml:"spidev,omitempty"`
	Port   string `yaml:"Port,omitempty"`

	// SPI HAT pin assignments.
	CS    int `yaml:"CS,omitempty"`
	IRQ   int `yaml:"IRQ,omitempty"`
	Busy  int `yaml:"Busy,omitempty"`
	Reset int `yaml:"Reset,omitempty"`
}

type LoggingSection struct {
	LogLevel LogLevel `yaml:"LogLevel,omitempty"`
}

type WebserverSection struct {
	Port     int    `yaml:"Port,omitempty"`
	RootPath string `yaml:"RootPath,omitempty"`
}

type MQTTSection struct {
	Enabled bool   `yaml:"Enabled,omitempty"`
	Address string `yaml:"Address,omitempty"`
}

func (l LogLevel) Valid() bool {
	switch l {
	case "", LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug:
		return true
	default:
		return false
	}
}

func (c Config) ValidateBasics() error {
	if !c.Logging.LogLevel.Valid() {
		return fmt.Errorf("Logging.LogLevel must be one of error,warn,info,debug")
	}
	if c.Lora.SPIDev != "" && c.Lora.Port != "" {
		return fmt.Errorf("Lora.spidev and Lora.Port are mutually exclusive")
	}
	return nil
}
