package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/gousb"
	"github.com/joho/godotenv"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AlexStarov/ez30-GoLang-lib/config"
	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
	"github.com/AlexStarov/ez30-GoLang-lib/printer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "ez30print:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("ez30print", pflag.ContinueOnError)
	fs.String("config", "", "YAML configuration file")
	fs.StringP("image", "i", "", "image to print, - for stdin")
	fs.String("qr", "", "print a QR code with this content")
	fs.String("preview", "", "write a PNG of the label to this file instead of printing")
	fs.Bool("list", false, "list serial ports and exit")

	fs.String("link", "", "serial, usb or dry-run")
	fs.StringP("port", "p", "", "serial port, e.g. /dev/ttyUSB0 or COM3")
	fs.String("usb-vid", "", "USB vendor id (hex)")
	fs.String("usb-pid", "", "USB product id (hex)")
	fs.String("dry-run-file", "", "where dry-run writes the printer bytes")
	fs.Int("burst", 0, "split image runs into commands of at most this many bytes")

	fs.IntP("threshold", "t", imgInternal.DefaultThreshold, "luminance below which a pixel is printed (0..256)")
	fs.Bool("hi-res", false, "print in high resolution")
	fs.String("filter", "", "resize filter: nearest, bilinear, bicubic, mitchell-netravali, lanczos2, lanczos3")

	fs.Bool("debug", false, "debug logging")
	fs.String("log-dir", "", "directory for log files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EZ30")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	if v.GetBool("list") {
		return listPorts(os.Stdout)
	}

	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if err := applyOverrides(cfg, v); err != nil {
		return err
	}

	if err := logInternal.Init(logInternal.Options{
		Debug: cfg.Log.Debug,
		Dir:   cfg.Log.Dir,
		Name:  cfg.Log.Name,
	}); err != nil {
		return err
	}
	defer logInternal.Sync()

	src, err := source(v)
	if err != nil {
		return err
	}
	img, err := src.Image()
	if err != nil {
		return err
	}

	if out := v.GetString("preview"); out != "" {
		if err := config.Validate(withLink(cfg, config.LinkDryRun)); err != nil {
			return err
		}
		config.Normalize(cfg)
		return writePreview(cfg.Image.Converter(), img, out)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)

	p, closeOut, err := newPrinter(cfg)
	if err != nil {
		return err
	}
	defer closeOut()
	defer p.Close()

	if err := p.Initialize(); err != nil {
		return err
	}
	if err := cfg.Image.Converter().Print(img, p); err != nil {
		return err
	}

	st := p.Stats()
	logInternal.Info("label printed",
		zap.String("link", cfg.Printer.Link),
		zap.Int("commands", st.Commands),
		zap.Int("bytes", st.Bytes),
		zap.Int("pauses", st.Pauses))
	return nil
}

// applyOverrides puts flags and EZ30_* variables over the file values.
func applyOverrides(cfg *config.Config, v *viper.Viper) error {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setString("link", &cfg.Printer.Link)
	setString("port", &cfg.Printer.Port)
	setString("dry-run-file", &cfg.Printer.DryRunFile)
	setString("filter", &cfg.Image.Filter)
	setString("log-dir", &cfg.Log.Dir)

	if v.IsSet("burst") {
		cfg.Printer.Burst = v.GetInt("burst")
	}
	if v.IsSet("threshold") {
		cfg.Image.Threshold = v.GetInt("threshold")
	}
	if v.IsSet("hi-res") {
		cfg.Image.HighRes = v.GetBool("hi-res")
	}
	if v.IsSet("debug") {
		cfg.Log.Debug = v.GetBool("debug")
	}

	for key, dst := range map[string]*uint16{
		"usb-vid": &cfg.Printer.USB.VendorID,
		"usb-pid": &cfg.Printer.USB.ProductID,
	} {
		if !v.IsSet(key) {
			continue
		}
		id, err := parseHexID(v.GetString(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = id
	}

	// a USB id on the command line implies the usb link
	if !v.IsSet("link") && (v.IsSet("usb-vid") || v.IsSet("usb-pid")) {
		cfg.Printer.Link = config.LinkUSB
	}
	return nil
}

func parseHexID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func source(v *viper.Viper) (imgInternal.Source, error) {
	if content := v.GetString("qr"); content != "" {
		return imgInternal.QRSource{Content: content, Level: qrcode.Medium}, nil
	}
	switch path := v.GetString("image"); path {
	case "":
		return nil, errors.New("nothing to print: use --image or --qr")
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return imgInternal.BytesSource(data), nil
	default:
		return imgInternal.FileSource(path), nil
	}
}

// newPrinter builds the printer for the configured link. closeOut releases
// what the link needs besides the printer itself.
func newPrinter(cfg *config.Config) (*printer.Printer, func(), error) {
	timing := cfg.Printer.Timing()
	logOpt := printer.WithLogger(logInternal.L())
	noop := func() {}

	switch cfg.Printer.Link {
	case config.LinkUSB:
		p, err := printer.NewUSBPrinter(gousb.ID(cfg.Printer.USB.VendorID), gousb.ID(cfg.Printer.USB.ProductID), timing, logOpt)
		return p, noop, err
	case config.LinkDryRun:
		f, err := os.Create(cfg.Printer.DryRunFile)
		if err != nil {
			return nil, noop, err
		}
		closeOut := func() {
			if err := f.Close(); err != nil {
				logInternal.Warn("dry-run output not closed", zap.Error(err))
			}
		}
		open := func() (printer.Link, error) { return printer.NewSimulator(f), nil }
		p, err := printer.NewPrinter(open, timing, logOpt)
		if err != nil {
			closeOut()
			return nil, noop, err
		}
		return p, closeOut, nil
	default:
		p, err := printer.NewSerialPrinter(cfg.Printer.Port, timing, logOpt)
		return p, noop, err
	}
}

func writePreview(c *imgInternal.Converter, img image.Image, out string) error {
	prev, err := c.Preview(img)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, prev); err != nil {
		f.Close()
		return err
	}
	logInternal.Info("preview written", zap.String("file", out), zap.Stringer("mode", c.Mode))
	return f.Close()
}

func listPorts(w io.Writer) error {
	ports, err := printer.ListSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Fprintf(w, "%s\tusb %s:%s %s %s\n", p.Name, p.VID, p.PID, p.Product, p.SerialNumber)
		} else {
			fmt.Fprintln(w, p.Name)
		}
	}
	return nil
}

// withLink returns a copy of cfg using link, for validating the image and
// timing settings when no printer is used.
func withLink(cfg *config.Config, link string) *config.Config {
	c := *cfg
	c.Printer.Link = link
	return &c
}
