// Package engine tracks DMX output state, applies gain and arbitrates
// between the dynamic (MIDI driven) and the static scene.
//
// The engine is single threaded: the change callback runs synchronously on
// the caller's goroutine from inside the mutating call.
package engine

import (
	"midi2dmx/internal/dmx"
	"midi2dmx/internal/midi"
	"midi2dmx/internal/vector"
)

const (
	UnityGain    = 1024 // UnityGain leaves levels untouched.
	GainDeadZone = 5    // GainDeadZone is the jitter band around the applied gain.

	maxSlots = 16
)

// Scene identifies which scene drives the outputs.
type Scene int

const (
	SceneDynamic Scene = iota
	SceneStatic
)

func (s Scene) String() string {
	if s == SceneStatic {
		return "static"
	}
	return "dynamic"
}

// OnChangeFunc receives every output channel whose level changed.
type OnChangeFunc func(channel, level uint8)

type dynamicChannel struct {
	channel uint8
	level   uint8 // unattenuated
}

type output struct {
	level    uint8
	reported bool
}

// Engine owns the per-channel output state.
type Engine struct {
	onChange OnChangeFunc

	dynamic vector.Vector[dynamicChannel]
	slots   *vector.Vector[dmx.Slot]
	outputs [dmx.MaxChannel + 1]output

	gain         uint16
	appliedGain  uint16
	valueChanged bool
	active       Scene
}

// NewEngine returns an engine with unity gain and the dynamic scene active.
func NewEngine(onChange OnChangeFunc) *Engine {
	if onChange == nil {
		onChange = func(uint8, uint8) {}
	}
	return &Engine{
		onChange:    onChange,
		slots:       vector.NewWithMax[dmx.Slot](0, maxSlots),
		gain:        UnityGain,
		appliedGain: UnityGain,
		active:      SceneDynamic,
	}
}

// ActiveScene returns the scene currently driving the outputs.
func (e *Engine) ActiveScene() Scene { return e.active }

// Gain returns the last accepted gain.
func (e *Engine) Gain() uint16 { return e.gain }

// Output returns the last level reported for channel and whether one was reported.
func (e *Engine) Output(channel uint8) (uint8, bool) {
	if channel > dmx.MaxChannel {
		return 0, false
	}
	o := e.outputs[channel]
	return o.level, o.reported
}

// SetValue stores the unattenuated level of a dynamic channel. Unset values
// and channels above dmx.MaxChannel are ignored. While the static scene is
// active the level is kept for later and nothing is reported.
func (e *Engine) SetValue(v dmx.Value) {
	if !v.IsSet() || v.Channel() > dmx.MaxChannel {
		return
	}
	e.store(v.Channel(), v.Level())
	e.valueChanged = true
	if e.active != SceneDynamic {
		return
	}
	e.report(v.Channel(), attenuate(v.Level(), e.gain))
}

// SetMidiCcValue converts a MIDI controller change and applies it like SetValue.
func (e *Engine) SetMidiCcValue(channel, value uint8) {
	e.SetValue(midi.NewContinuousController(channel, value).ToDmx())
}

// SetGain clamps gain to UnityGain and re-attenuates the dynamic channels.
// A gain within GainDeadZone of the applied one is stored without
// recomputation, unless a value changed since the last applied gain.
func (e *Engine) SetGain(gain uint16) {
	gain = min(gain, UnityGain)
	e.gain = gain
	if !e.valueChanged && absDiff(gain, e.appliedGain) <= GainDeadZone {
		return
	}
	e.appliedGain = gain
	e.valueChanged = false
	if e.active != SceneDynamic {
		return
	}
	for _, c := range e.dynamic.Values() {
		e.report(c.channel, attenuate(c.level, e.gain))
	}
}

// SetStaticScene replaces the static scene. The engine keeps its own copy
// of every slot's channels. Nothing is reported until the static scene is
// activated.
func (e *Engine) SetStaticScene(slots ...dmx.Slot) {
	for !e.slots.Empty() {
		e.slots.PopBack()
	}
	for _, s := range slots {
		e.slots.PushBack(dmx.Slot{Channels: s.Channels.Clone(), Value: s.Value})
	}
}

// ActivateStaticScene blacks out the dynamic scene and reports the static
// scene levels in slot order.
func (e *Engine) ActivateStaticScene() {
	if e.active == SceneDynamic {
		for _, c := range e.dynamic.Values() {
			e.blackout(c.channel)
		}
	}
	e.active = SceneStatic
	for _, s := range e.slots.Values() {
		for _, ch := range s.Channels.Values() {
			if ch <= dmx.MaxChannel {
				e.report(ch, s.Value)
			}
		}
	}
}

// ActivateDynamicScene blacks out the static scene and reports every
// dynamic channel holding a non-zero level with the current gain.
func (e *Engine) ActivateDynamicScene() {
	if e.active == SceneStatic {
		for _, s := range e.slots.Values() {
			for _, ch := range s.Channels.Values() {
				e.blackout(ch)
			}
		}
	}
	e.active = SceneDynamic
	for _, c := range e.dynamic.Values() {
		if c.level != 0 {
			e.report(c.channel, attenuate(c.level, e.gain))
		}
	}
}

func (e *Engine) store(channel, level uint8) {
	values := e.dynamic.Values()
	for i := range values {
		if values[i].channel == channel {
			values[i].level = level
			return
		}
	}
	e.dynamic.PushBack(dynamicChannel{channel: channel, level: level})
}

// report invokes the callback when the level differs from the last one
// reported for channel. The first report of a channel always fires.
func (e *Engine) report(channel, level uint8) {
	o := &e.outputs[channel]
	if o.reported && o.level == level {
		return
	}
	o.level = level
	o.reported = true
	e.onChange(channel, level)
}

func (e *Engine) blackout(channel uint8) {
	if channel > dmx.MaxChannel {
		return
	}
	if o := e.outputs[channel]; o.reported && o.level != 0 {
		e.report(channel, 0)
	}
}

func attenuate(level uint8, gain uint16) uint8 {
	return uint8(uint32(level) * uint32(gain) / UnityGain)
}

func absDiff[T ~uint8 | ~uint16 | ~uint32 | ~int](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
