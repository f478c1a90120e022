package artnet

import "sync"

// UniverseSize is the number of channels in one DMX universe.
const UniverseSize = 512

// ChannelValue defines an ArtNet Universe and the value of the DMX channel.
type ChannelValue struct {
	Universe uint16 // Universe: старший байт - SubUni, младший байт - Net.
	Channel  uint16 // Channel: номер байта (канал).
	Value    uint8  // Value: значение для канала.
}

// Universe wraps the 512 byte array for convenience.
type Universe [UniverseSize]byte

func (u Universe) toByteSlice() [UniverseSize]byte {
	return u
}

// UniverseStateMap holds the state of all used universes.
type UniverseStateMap map[uint16]Universe

// State is the last value written to every channel of every universe.
type State struct {
	mu        sync.Mutex
	universes UniverseStateMap
}

func NewState() *State {
	return &State{universes: UniverseStateMap{}}
}

// SetChannel ignores channels outside the universe.
func (s *State) SetChannel(universe, channel uint16, value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(universe, channel, value)
}

func (s *State) set(universe, channel uint16, value uint8) {
	if channel >= UniverseSize {
		return
	}
	u := s.universes[universe]
	u[channel] = value
	s.universes[universe] = u
}

// Get returns a copy of all universes.
func (s *State) Get() UniverseStateMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(UniverseStateMap, len(s.universes))
	for k, v := range s.universes {
		out[k] = v
	}
	return out
}
