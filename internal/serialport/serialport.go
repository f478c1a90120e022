// Package serialport exposes a UART as the non-blocking byte source the bridge polls.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"midi2dmx/internal/config"
	"midi2dmx/internal/logger"
)

const (
	readTimeout = 50 * time.Millisecond
	bufferSize  = 256
	chunkSize   = 64
)

var (
	// ErrNoData is returned by ReadByte when no byte is buffered.
	ErrNoData = errors.New("serial: no data available")
	// ErrDisconnected is reported by Err when the device stops producing data.
	ErrDisconnected = errors.New("serial: device disconnected")
)

// Port pumps bytes from the UART into a bounded buffer on a background
// goroutine. Available and ReadByte never block.
type Port struct {
	name string
	mode *serial.Mode
	log  logger.Logger

	rc     io.ReadCloser
	buf    chan byte
	done   chan struct{}
	failed chan struct{}
	err    error
	wg     sync.WaitGroup
	once   sync.Once
}

// New returns a closed port. Call Begin to open it.
func New(log logger.Logger, cfg config.SerialConf) *Port {
	return &Port{
		name: cfg.Port,
		mode: &serial.Mode{
			BaudRate: cfg.Baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		log:  log,
		buf:    make(chan byte, bufferSize),
		done:   make(chan struct{}),
		failed: make(chan struct{}),
	}
}

// Begin opens the UART and starts the pump.
func (p *Port) Begin() error {
	port, err := serial.Open(p.name, p.mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", p.name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		p.log.Module("serial").Warnf("reset input buffer: %v", err)
	}
	p.log.Module("serial").Infof("opened %s at %d baud", p.name, p.mode.BaudRate)
	p.start(port)
	return nil
}

func (p *Port) start(rc io.ReadCloser) {
	p.rc = rc
	p.wg.Add(1)
	go p.pump()
}

func (p *Port) pump() {
	defer p.wg.Done()
	chunk := make([]byte, chunkSize)
	for {
		n, err := p.rc.Read(chunk)
		for _, b := range chunk[:n] {
			select {
			case p.buf <- b:
			case <-p.done:
				return
			}
		}
		if err != nil {
			select {
			case <-p.done:
			default:
				p.fail(err)
			}
			return
		}
	}
}

// fail records why the pump stopped. An EOF means the device went away.
func (p *Port) fail(err error) {
	if errors.Is(err, io.EOF) {
		err = ErrDisconnected
	} else {
		p.log.Module("serial").Errorf("read %s: %v", p.name, err)
	}
	p.err = fmt.Errorf("serial port %s: %w", p.name, err)
	close(p.failed)
}

// Failed is closed once the pump has stopped on a read error. Close does
// not close it.
func (p *Port) Failed() <-chan struct{} {
	return p.failed
}

// Err returns the error that stopped the pump, or nil while it is running
// or after a plain Close.
func (p *Port) Err() error {
	select {
	case <-p.failed:
		return p.err
	default:
		return nil
	}
}

// Available returns the number of buffered bytes.
func (p *Port) Available() int {
	return len(p.buf)
}

// ReadByte returns the next buffered byte or ErrNoData.
func (p *Port) ReadByte() (byte, error) {
	select {
	case b := <-p.buf:
		return b, nil
	default:
		return 0, ErrNoData
	}
}

// Close stops the pump and closes the UART.
func (p *Port) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		if p.rc != nil {
			err = p.rc.Close()
		}
		p.wg.Wait()
	})
	return err
}

// ListPorts returns the serial ports known to the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}
	return ports, nil
}
