package printer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
)

// CDC ACM class requests used to configure a USB serial bridge.
const (
	cdcRequestType         = 0x21 // host to device, class, interface
	cdcSetLineCoding       = 0x20
	cdcSetControlLineState = 0x22
	cdcLineDTR             = 0x01
	cdcLineRTS             = 0x02
)

// usbLink talks to the printer through a CDC ACM USB serial adapter,
// bypassing the kernel tty driver.
type usbLink struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint

	timeout time.Duration
	pending []byte
}

// OpenUSB opens the CDC ACM adapter vendorID:productID and sets it to 9600 8N1.
func OpenUSB(vendorID, productID gousb.ID) (Link, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil || dev == nil {
		ctx.Close()
		if err == nil {
			err = errors.New("device not found")
		}
		return nil, fmt.Errorf("%w: usb %s:%s: %v", ErrPortOpen, vendorID, productID, err)
	}

	l := &usbLink{ctx: ctx, dev: dev}
	if err := l.setup(); err != nil {
		l.Close()
		return nil, fmt.Errorf("%w: usb %s:%s: %v", ErrPortOpen, vendorID, productID, err)
	}

	logInternal.Info("usb serial adapter opened",
		zap.Stringer("vid", vendorID),
		zap.Stringer("pid", productID),
		zap.Int("baud", BaudRate))
	return l, nil
}

// USBOpener returns an Opener for NewPrinter.
func USBOpener(vendorID, productID gousb.ID) Opener {
	return func() (Link, error) { return OpenUSB(vendorID, productID) }
}

// NewUSBPrinter создаёт Printer на USB-адаптере CDC ACM.
func NewUSBPrinter(vendorID, productID gousb.ID, cfg Config, opts ...Option) (*Printer, error) {
	return NewPrinter(USBOpener(vendorID, productID), cfg, opts...)
}

func (u *usbLink) setup() error {
	u.dev.SetAutoDetach(true)

	cfgNum, err := u.dev.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}
	u.cfg, err = u.dev.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	ctrlNum, dataNum := -1, -1
	for _, iface := range u.cfg.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			switch alt.Class {
			case gousb.ClassComm:
				if ctrlNum < 0 {
					ctrlNum = iface.Number
				}
			case gousb.ClassData:
				if dataNum < 0 {
					dataNum = iface.Number
				}
			}
		}
	}
	if dataNum < 0 {
		return errors.New("no CDC data interface")
	}
	if ctrlNum < 0 {
		ctrlNum = dataNum
	}

	u.intf, err = u.cfg.Interface(dataNum, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface %d: %w", dataNum, err)
	}

	for _, ep := range u.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionOut && u.out == nil {
			if u.out, err = u.intf.OutEndpoint(ep.Number); err != nil {
				return err
			}
		}
		if ep.Direction == gousb.EndpointDirectionIn && u.in == nil {
			if u.in, err = u.intf.InEndpoint(ep.Number); err != nil {
				return err
			}
		}
	}
	if u.out == nil || u.in == nil {
		return errors.New("bulk endpoints not found")
	}

	if _, err := u.dev.Control(cdcRequestType, cdcSetLineCoding, 0, uint16(ctrlNum), lineCoding(BaudRate)); err != nil {
		return fmt.Errorf("set line coding: %w", err)
	}
	if _, err := u.dev.Control(cdcRequestType, cdcSetControlLineState, cdcLineDTR|cdcLineRTS, uint16(ctrlNum), nil); err != nil {
		return fmt.Errorf("set control line state: %w", err)
	}
	return nil
}

// lineCoding builds the 7 byte CDC line coding: rate, 1 stop bit, no parity, 8 data bits.
func lineCoding(baud int) []byte {
	b := make([]byte, 7)
	binary.LittleEndian.PutUint32(b[0:4], uint32(baud))
	b[4] = 0 // 1 stop bit
	b[5] = 0 // no parity
	b[6] = 8
	return b
}

func (u *usbLink) Write(p []byte) (int, error) {
	return u.out.Write(p)
}

// Read returns buffered bytes first; otherwise waits up to the read timeout
// for a bulk packet. A timeout yields 0, nil.
func (u *usbLink) Read(p []byte) (int, error) {
	if len(u.pending) > 0 {
		n := copy(p, u.pending)
		u.pending = u.pending[n:]
		return n, nil
	}

	timeout := u.timeout
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf := make([]byte, u.in.Desc.MaxPacketSize)
	n, err := u.in.ReadContext(ctx, buf)
	if err != nil && n == 0 {
		if ctx.Err() != nil || errors.Is(err, gousb.TransferCancelled) || errors.Is(err, gousb.TransferTimedOut) {
			return 0, nil
		}
		return 0, err
	}

	c := copy(p, buf[:n])
	u.pending = append(u.pending, buf[c:n]...)
	return c, nil
}

func (u *usbLink) SetReadTimeout(t time.Duration) error {
	u.timeout = t
	return nil
}

func (u *usbLink) Close() error {
	if u.intf != nil {
		u.intf.Close()
		u.intf = nil
	}
	var errs []error
	if u.cfg != nil {
		if err := u.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
		u.cfg = nil
	}
	if u.dev != nil {
		if err := u.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		u.dev = nil
	}
	if u.ctx != nil {
		if err := u.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		u.ctx = nil
	}
	return errors.Join(errs...)
}
