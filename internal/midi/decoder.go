// Package midi turns a raw MIDI byte stream into Control Change events.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	StatusControlChange = 0xb0
	StatusCodeMask      = 0xf0
	ChannelMask         = 0x0f

	statusBit     = 0x80
	realTimeFirst = 0xf8

	MinChannel = 1
	MaxChannel = 16
)

// SyncState is the position of the decoder inside a Control Change frame.
type SyncState int

const (
	AwaitingSync SyncState = iota
	AwaitingController
	AwaitingValue
)

func (s SyncState) String() string {
	switch s {
	case AwaitingSync:
		return "awaiting-sync"
	case AwaitingController:
		return "awaiting-controller"
	case AwaitingValue:
		return "awaiting-value"
	default:
		return "unknown"
	}
}

// Decoder assembles Control Change frames addressed to one MIDI channel.
// Bytes that cannot belong to such a frame are dropped and the decoder waits
// for the next status byte. A Decoder is not safe for concurrent use.
type Decoder struct {
	channel uint8
	status  byte
	frame   [3]byte
	state   SyncState
	dropped uint64
}

// NewDecoder returns a decoder listening on channel (1-16, clamped).
func NewDecoder(channel uint8) *Decoder {
	channel = max(MinChannel, min(channel, MaxChannel))
	return &Decoder{
		channel: channel,
		status:  StatusControlChange | ((channel - 1) & ChannelMask),
	}
}

// Channel returns the MIDI channel the decoder listens on.
func (d *Decoder) Channel() uint8 { return d.channel }

// Status returns the accepted status byte.
func (d *Decoder) Status() byte { return d.status }

func (d *Decoder) State() SyncState { return d.state }

// Dropped returns how many stray bytes and abandoned frames were discarded.
func (d *Decoder) Dropped() uint64 { return d.dropped }

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.state = AwaitingSync
}

// Feed consumes one byte and reports the controller change it completes, if any.
func (d *Decoder) Feed(b byte) (ContinuousController, bool) {
	// System real-time messages may appear anywhere, even inside a frame.
	if b >= realTimeFirst {
		return ContinuousController{}, false
	}

	switch d.state {
	case AwaitingSync:
		if b != d.status {
			d.dropped++
			return ContinuousController{}, false
		}
		d.frame[0] = b
		d.state = AwaitingController
	case AwaitingController:
		if b&statusBit != 0 {
			d.resync(b)
			return ContinuousController{}, false
		}
		d.frame[1] = b
		d.state = AwaitingValue
	case AwaitingValue:
		if b&statusBit != 0 {
			d.resync(b)
			return ContinuousController{}, false
		}
		d.frame[2] = b
		d.state = AwaitingSync
		return d.decode()
	}
	return ContinuousController{}, false
}

// resync abandons the partial frame. A status byte matching the configured
// channel opens a new frame right away.
func (d *Decoder) resync(b byte) {
	d.dropped++
	d.state = AwaitingSync
	if b == d.status {
		d.frame[0] = b
		d.state = AwaitingController
	}
}

// decode reads the frame opened by d.status, so the channel is already checked.
func (d *Decoder) decode() (ContinuousController, bool) {
	var channel, controller, value uint8
	if !gomidi.Message(d.frame[:]).GetControlChange(&channel, &controller, &value) {
		return ContinuousController{}, false
	}
	return NewContinuousController(controller, value), true
}
