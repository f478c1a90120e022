// Package dmx holds the DMX channel/value types shared by the engine and its sinks.
package dmx

import "midi2dmx/internal/vector"

const (
	MaxChannel = 0x7f // MaxChannel is the highest addressable output channel (127).
	MaxLevel   = 0xfe // MaxLevel is the highest level produced from MIDI input (254).
)

// Value is a channel/level pair. The zero Value is unset, which is distinct
// from a set Value whose channel and level are both 0.
type Value struct {
	channel uint8
	level   uint8
	set     bool
}

// NewValue returns a set Value.
func NewValue(channel, level uint8) Value {
	return Value{channel: channel, level: level, set: true}
}

func (v Value) Channel() uint8 { return v.channel }

func (v Value) Level() uint8 { return v.level }

// IsSet reports whether v was built with NewValue.
func (v Value) IsSet() bool { return v.set }

// Equal compares channel and level only.
func (v Value) Equal(other Value) bool {
	return v.channel == other.channel && v.level == other.level
}

// RGB holds one target level per color slot of a static scene.
type RGB struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// RGBChannels assigns output channels to each color slot.
type RGBChannels struct {
	Red   vector.Vector[uint8]
	Green vector.Vector[uint8]
	Blue  vector.Vector[uint8]
}

// Slot is one entry of a static scene: every channel in Channels is driven to Value.
type Slot struct {
	Channels vector.Vector[uint8]
	Value    uint8
}

// RGBScene returns the red, green and blue slots in that order.
func RGBScene(channels RGBChannels, rgb RGB) []Slot {
	return []Slot{
		{Channels: channels.Red, Value: rgb.Red},
		{Channels: channels.Green, Value: rgb.Green},
		{Channels: channels.Blue, Value: rgb.Blue},
	}
}
