// Package bridge connects a serial MIDI byte source to the DMX engine.
package bridge

import (
	"context"
	"io"
	"time"

	"midi2dmx/internal/dmx"
	"midi2dmx/internal/engine"
	"midi2dmx/internal/logger"
	"midi2dmx/internal/midi"
)

// maxAttenuation is the attenuation input that maps to unity gain.
const maxAttenuation = 0xff

// SerialReader is the non-blocking byte source the bridge polls.
type SerialReader interface {
	Begin() error
	// Available returns the number of bytes that can be read without blocking.
	Available() int
	io.ByteReader
}

// Sleeper pauses the poll loop between two listens.
type Sleeper interface {
	Sleep(ms uint16)
}

// SystemSleeper sleeps on the wall clock.
type SystemSleeper struct{}

func (SystemSleeper) Sleep(ms uint16) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Bridge decodes Control Change frames for one MIDI channel and feeds them
// into an engine.Engine.
type Bridge struct {
	serial  SerialReader
	decoder *midi.Decoder
	engine  *engine.Engine
	log     logger.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(b *Bridge) {
		b.log = l
	}
}

// New returns a bridge listening on MIDI channel (1-16). onChange receives
// every output change of the engine.
func New(channel uint8, onChange engine.OnChangeFunc, serial SerialReader, opts ...Option) *Bridge {
	b := &Bridge{
		serial:  serial,
		decoder: midi.NewDecoder(channel),
		engine:  engine.NewEngine(onChange),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}
	return b
}

// Begin starts the serial transport.
func (b *Bridge) Begin() error {
	return b.serial.Begin()
}

// Listen consumes the buffered serial bytes until one Control Change frame
// is complete and forwards it to the engine. It never blocks.
func (b *Bridge) Listen() {
	dropped := b.decoder.Dropped()
	defer func() {
		if n := b.decoder.Dropped() - dropped; n > 0 {
			b.log.Module("bridge").Debugf("resync: discarded %d byte(s), state %s", n, b.decoder.State())
		}
	}()

	for b.serial.Available() > 0 {
		c, err := b.serial.ReadByte()
		if err != nil {
			b.log.Module("bridge").Errorf("serial read: %v", err)
			return
		}
		cc, ok := b.decoder.Feed(c)
		if !ok {
			continue
		}
		b.log.Module("bridge").Debugf("CC controller=%d value=%d", cc.Channel(), cc.Value())
		b.engine.SetMidiCcValue(cc.Channel(), cc.Value())
		return
	}
}

func (b *Bridge) SetStaticScene(slots ...dmx.Slot) {
	b.engine.SetStaticScene(slots...)
}

func (b *Bridge) SwitchToStaticScene() {
	b.engine.ActivateStaticScene()
}

func (b *Bridge) SwitchToDynamicScene() {
	b.engine.ActivateDynamicScene()
}

// SetAttenuation scales 0-255 onto the engine gain; 255 is unity.
func (b *Bridge) SetAttenuation(gain uint8) {
	b.engine.SetGain(uint16(uint32(gain) * engine.UnityGain / maxAttenuation))
}

// ActiveScene returns the scene currently driving the outputs.
func (b *Bridge) ActiveScene() engine.Scene {
	return b.engine.ActiveScene()
}

// Run polls Listen until ctx is done. idle, if set, runs after every poll on
// the same goroutine, so it may call the bridge.
func (b *Bridge) Run(ctx context.Context, sleeper Sleeper, intervalMs uint16, idle func()) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		b.Listen()
		if idle != nil {
			idle()
		}
		sleeper.Sleep(intervalMs)
	}
}
