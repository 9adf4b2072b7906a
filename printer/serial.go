package printer

import (
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
)

// serialLink adapts serial.Port to Link.
type serialLink struct {
	serial.Port
}

// OpenSerial открывает последовательный порт (COM3, /dev/ttyUSB0, /dev/cu.usbserial*)
// на 9600 8N1 и очищает буферы.
func OpenSerial(portName string) (Link, error) {
	// Получаем список доступных портов (для проверки имени)
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list serial ports: %v", ErrPortOpen, err)
	}
	logInternal.Debug("available serial ports", zap.Strings("ports", ports))

	if !contains(ports, portName) {
		return nil, fmt.Errorf("%w: serial port %s not found", ErrPortOpen, portName)
	}

	mode := &serial.Mode{
		BaudRate: BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortOpen, portName, err)
	}

	if err := port.ResetInputBuffer(); err != nil {
		logInternal.Warn("reset input buffer failed", zap.String("port", portName), zap.Error(err))
	}
	if err := port.ResetOutputBuffer(); err != nil {
		logInternal.Warn("reset output buffer failed", zap.String("port", portName), zap.Error(err))
	}

	logInternal.Info("serial port opened", zap.String("port", portName), zap.Int("baud", BaudRate))
	return serialLink{port}, nil
}

// SerialOpener returns an Opener for NewPrinter.
func SerialOpener(portName string) Opener {
	return func() (Link, error) { return OpenSerial(portName) }
}

// NewSerialPrinter создаёт Printer на последовательном порту.
// Порт открывается в Initialize.
func NewSerialPrinter(portName string, cfg Config, opts ...Option) (*Printer, error) {
	return NewPrinter(SerialOpener(portName), cfg, opts...)
}

// PortInfo describes a serial port found on the system.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID, PID     string
	SerialNumber string
	Product      string
}

// ListSerialPorts lists serial ports with USB details where available.
func ListSerialPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return out, nil
}

// Проверяем, есть ли порт в списке
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
