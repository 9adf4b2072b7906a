// config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Printer.Link = strings.ToLower(cfg.Printer.Link)
	cfg.Printer.Port = strings.TrimSpace(cfg.Printer.Port)
	cfg.Image.Filter = strings.ToLower(cfg.Image.Filter)

	if cfg.Printer.Link == LinkDryRun && cfg.Printer.DryRunFile == "" {
		cfg.Printer.DryRunFile = "ez30.bin"
	}
	if cfg.Log.Name == "" {
		cfg.Log.Name = "ez30"
	}
}
