package midi

import (
	"midi2dmx/internal/dmx"
)

// MaxValue is the highest 7-bit MIDI data value (127).
const MaxValue = 0x7f

// ContinuousController is a MIDI Control Change pair. The controller number
// becomes the DMX channel and the controller value the DMX level.
type ContinuousController struct {
	channel uint8
	value   uint8
}

// NewContinuousController clips channel and value to the 7-bit MIDI range.
func NewContinuousController(channel, value uint8) ContinuousController {
	return ContinuousController{channel: min(channel, MaxValue), value: min(value, MaxValue)}
}

func (c ContinuousController) Channel() uint8 { return c.channel }

func (c ContinuousController) Value() uint8 { return c.value }

func (c ContinuousController) Equal(other ContinuousController) bool {
	return c == other
}

// ToDmx doubles the controller value onto the DMX range; 127 maps to 254.
func (c ContinuousController) ToDmx() dmx.Value {
	level := uint8(dmx.MaxLevel)
	if c.value <= MaxValue {
		level = c.value * 2
	}
	return dmx.NewValue(min(c.channel, dmx.MaxChannel), level)
}
