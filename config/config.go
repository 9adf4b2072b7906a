// config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	"github.com/AlexStarov/ez30-GoLang-lib/printer"
)

// Link types.
const (
	LinkSerial = "serial"
	LinkUSB    = "usb"
	LinkDryRun = "dry-run"
)

type Config struct {
	Printer PrinterConfig `yaml:"printer"`
	Image   ImageConfig   `yaml:"image"`
	Log     LogConfig     `yaml:"log"`
}

// ---- PRINTER ----

type PrinterConfig struct {
	Link string    `yaml:"link"`
	Port string    `yaml:"port"` // serial
	USB  USBConfig `yaml:"usb"`

	// dry-run: bytes that would go to the printer are written here
	DryRunFile string `yaml:"dry_run_file"`

	CharDelay      time.Duration `yaml:"char_delay"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	InitSettle     time.Duration `yaml:"init_settle"`
	LineSettle     time.Duration `yaml:"line_settle"`
	Burst          int           `yaml:"burst"`
}

type USBConfig struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
}

// ---- IMAGE ----

type ImageConfig struct {
	Threshold int    `yaml:"threshold"`
	HighRes   bool   `yaml:"high_res"`
	Filter    string `yaml:"filter"`
}

// ---- LOG ----

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
	Name  string `yaml:"name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	pc := printer.DefaultConfig()
	return &Config{
		Printer: PrinterConfig{
			Link:           LinkSerial,
			DryRunFile:     "ez30.bin",
			CharDelay:      pc.CharDelay,
			CommandTimeout: pc.CommandTimeout,
			InitSettle:     pc.InitSettle,
			LineSettle:     pc.LineSettle,
			Burst:          pc.Burst,
		},
		Image: ImageConfig{
			Threshold: imgInternal.DefaultThreshold,
			Filter:    "bicubic",
		},
		Log: LogConfig{
			Name: "ez30",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file. An empty document gives the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Timing converts the printer section for printer.NewPrinter.
func (p PrinterConfig) Timing() printer.Config {
	return printer.Config{
		CharDelay:      p.CharDelay,
		CommandTimeout: p.CommandTimeout,
		InitSettle:     p.InitSettle,
		LineSettle:     p.LineSettle,
		Burst:          p.Burst,
	}
}

func (i ImageConfig) Mode() imgInternal.Mode {
	return imgInternal.ModeOf(i.HighRes)
}

// Converter builds the image converter described by the section.
// Call after Validate.
func (i ImageConfig) Converter() *imgInternal.Converter {
	c := imgInternal.NewConverter(i.Mode(), i.Threshold)
	if f, err := imgInternal.InterpolationByName(i.Filter); err == nil {
		c.Interpolation = f
	}
	return c
}
