// config/validate.go
package config

import (
	"fmt"
	"strings"

	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	"github.com/AlexStarov/ez30-GoLang-lib/printer"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	p := cfg.Printer

	switch strings.ToLower(p.Link) {
	case LinkSerial:
		if strings.TrimSpace(p.Port) == "" {
			return fmt.Errorf("printer: link %q requires port", LinkSerial)
		}
	case LinkUSB:
		if p.USB.VendorID == 0 || p.USB.ProductID == 0 {
			return fmt.Errorf("printer: link %q requires usb.vendor_id and usb.product_id", LinkUSB)
		}
	case LinkDryRun:
	default:
		return fmt.Errorf("printer: unknown link %q (want %s, %s or %s)", p.Link, LinkSerial, LinkUSB, LinkDryRun)
	}

	if p.CharDelay < 0 || p.InitSettle < 0 || p.LineSettle < 0 {
		return fmt.Errorf("printer: delays must not be negative")
	}
	if p.CommandTimeout <= 0 {
		return fmt.Errorf("printer: command_timeout must be positive")
	}
	if p.Burst < 0 || p.Burst > printer.MaxPayload {
		return fmt.Errorf("printer: burst must be in 0..%d, got %d", printer.MaxPayload, p.Burst)
	}

	// 256 makes every pixel ink, 0 none
	if cfg.Image.Threshold < 0 || cfg.Image.Threshold > 256 {
		return fmt.Errorf("image: threshold must be in 0..256, got %d", cfg.Image.Threshold)
	}
	if _, err := imgInternal.InterpolationByName(strings.ToLower(cfg.Image.Filter)); err != nil {
		return err
	}

	return nil
}
