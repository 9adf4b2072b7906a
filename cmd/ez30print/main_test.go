package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexStarov/ez30-GoLang-lib/config"
	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	"github.com/AlexStarov/ez30-GoLang-lib/printer"
)

func flagViper(t *testing.T, args ...string) *viper.Viper {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("link", "", "")
	fs.String("port", "", "")
	fs.String("usb-vid", "", "")
	fs.String("usb-pid", "", "")
	fs.String("dry-run-file", "", "")
	fs.String("filter", "", "")
	fs.String("log-dir", "", "")
	fs.Int("burst", 0, "")
	fs.Int("threshold", imgInternal.DefaultThreshold, "")
	fs.Bool("hi-res", false, "")
	fs.Bool("debug", false, "")
	fs.String("qr", "", "")
	fs.String("image", "", "")
	require.NoError(t, fs.Parse(args))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))
	return v
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Image.Threshold = 99

	v := flagViper(t, "--usb-vid", "067B", "--usb-pid", "0x2303", "--hi-res", "--burst", "32")
	require.NoError(t, applyOverrides(cfg, v))

	assert.Equal(t, config.LinkUSB, cfg.Printer.Link)
	assert.Equal(t, uint16(0x067b), cfg.Printer.USB.VendorID)
	assert.Equal(t, uint16(0x2303), cfg.Printer.USB.ProductID)
	assert.True(t, cfg.Image.HighRes)
	assert.Equal(t, 32, cfg.Printer.Burst)
	assert.Equal(t, 99, cfg.Image.Threshold, "unset flags keep file values")
}

func TestApplyOverridesBadID(t *testing.T) {
	v := flagViper(t, "--usb-vid", "zz")
	assert.Error(t, applyOverrides(config.Default(), v))
}

func TestSource(t *testing.T) {
	_, err := source(flagViper(t))
	assert.Error(t, err)

	src, err := source(flagViper(t, "--qr", "hello"))
	require.NoError(t, err)
	assert.IsType(t, imgInternal.QRSource{}, src)

	src, err = source(flagViper(t, "--image", "label.png"))
	require.NoError(t, err)
	assert.Equal(t, imgInternal.FileSource("label.png"), src)
}

func TestDryRunPrinter(t *testing.T) {
	cfg := config.Default()
	cfg.Printer.Link = config.LinkDryRun
	cfg.Printer.DryRunFile = filepath.Join(t.TempDir(), "out.bin")
	cfg.Printer.CharDelay, cfg.Printer.InitSettle, cfg.Printer.LineSettle = 0, 0, 0
	require.NoError(t, config.Validate(cfg))

	p, closeOut, err := newPrinter(cfg)
	require.NoError(t, err)
	defer closeOut()

	require.NoError(t, p.Initialize())
	assert.Equal(t, printer.StateReady, p.State())
	require.NoError(t, p.Close())
}
