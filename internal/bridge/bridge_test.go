package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi2dmx/internal/dmx"
	"midi2dmx/internal/engine"
	"midi2dmx/internal/logger"
	"midi2dmx/internal/vector"
)

const syncByte = 0xb0

type fakeSerial struct {
	data    []byte
	begins  int
	readErr error
}

func (s *fakeSerial) Begin() error {
	s.begins++
	return nil
}

func (s *fakeSerial) Available() int {
	return len(s.data)
}

func (s *fakeSerial) ReadByte() (byte, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, nil
}

type change struct {
	channel uint8
	level   uint8
}

type recorder struct {
	changes []change
}

func (r *recorder) onChange(channel, level uint8) {
	r.changes = append(r.changes, change{channel, level})
}

func newTestBridge() (*Bridge, *fakeSerial, *recorder) {
	serial := &fakeSerial{data: []byte{syncByte, 0x01, 0x02, syncByte, 0x03}}
	r := &recorder{}
	return New(1, r.onChange, serial, WithLogger(logger.NewNop())), serial, r
}

func TestBeginStartsSerial(t *testing.T) {
	b, serial, _ := newTestBridge()

	require.NoError(t, b.Begin())

	assert.Equal(t, 1, serial.begins)
}

func TestListenValidFrame(t *testing.T) {
	b, serial, r := newTestBridge()

	b.Listen()

	assert.Equal(t, []change{{0x01, 0x02 << 1}}, r.changes)
	assert.Equal(t, []byte{syncByte, 0x03}, serial.data)
}

func TestListenMissingSync(t *testing.T) {
	b, serial, r := newTestBridge()
	_, _ = serial.ReadByte()

	b.Listen()

	assert.Empty(t, r.changes)
	assert.Empty(t, serial.data)
}

func TestListenKeepsPartialFrame(t *testing.T) {
	b, serial, r := newTestBridge()
	b.Listen()
	b.Listen()
	require.Len(t, r.changes, 1)

	serial.data = []byte{0x7f}
	b.Listen()

	assert.Equal(t, []change{{1, 4}, {3, 254}}, r.changes)
}

func TestListenNoData(t *testing.T) {
	r := &recorder{}
	b := New(1, r.onChange, &fakeSerial{})

	b.Listen()

	assert.Empty(t, r.changes)
}

func TestListenReadError(t *testing.T) {
	r := &recorder{}
	b := New(1, r.onChange, &fakeSerial{data: []byte{syncByte, 1, 2}, readErr: errors.New("boom")})

	b.Listen()

	assert.Empty(t, r.changes)
}

func TestListenOtherChannel(t *testing.T) {
	r := &recorder{}
	b := New(2, r.onChange, &fakeSerial{data: []byte{syncByte, 1, 2, syncByte | 1, 5, 6}})

	b.Listen()

	assert.Equal(t, []change{{5, 12}}, r.changes)
}

func TestSwitchToStaticScene(t *testing.T) {
	b, _, r := newTestBridge()
	channels := []uint8{1, 2, 3}

	b.SetStaticScene(
		dmx.Slot{Channels: *vector.From(1, channels[0:1]), Value: 2},
		dmx.Slot{Channels: *vector.From(1, channels[1:2]), Value: 4},
		dmx.Slot{Channels: *vector.From(1, channels[2:3]), Value: 6},
	)
	b.SwitchToStaticScene()

	assert.Len(t, r.changes, 3)
	assert.Equal(t, engine.SceneStatic, b.ActiveScene())
}

func TestSwitchToDynamicScene(t *testing.T) {
	b, _, r := newTestBridge()

	b.Listen()
	b.SwitchToStaticScene()
	b.SwitchToDynamicScene()

	assert.Equal(t, []change{{1, 4}, {1, 0}, {1, 4}}, r.changes)
	assert.Equal(t, engine.SceneDynamic, b.ActiveScene())
}

func TestSetAttenuation(t *testing.T) {
	b, _, r := newTestBridge()

	b.Listen()
	b.SetAttenuation(0)

	assert.Equal(t, []change{{1, 4}, {1, 0}}, r.changes)
}

func TestSetAttenuationScale(t *testing.T) {
	r := &recorder{}
	b := New(1, r.onChange, &fakeSerial{data: []byte{syncByte, 9, 127}})
	b.Listen()

	b.SetAttenuation(128)
	b.SetAttenuation(255)

	// 128*1024/255 = 514, 254*514/1024 = 127.
	assert.Equal(t, []change{{9, 254}, {9, 127}, {9, 254}}, r.changes)
}

type countingSleeper struct {
	calls  int
	limit  int
	cancel context.CancelFunc
	last   uint16
}

func (s *countingSleeper) Sleep(ms uint16) {
	s.calls++
	s.last = ms
	if s.calls >= s.limit {
		s.cancel()
	}
}

func TestRun(t *testing.T) {
	b, _, r := newTestBridge()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &countingSleeper{limit: 3, cancel: cancel}
	idles := 0

	b.Run(ctx, sleeper, 2, func() { idles++ })

	assert.Equal(t, 3, sleeper.calls)
	assert.Equal(t, uint16(2), sleeper.last)
	assert.Equal(t, 3, idles)
	assert.Equal(t, []change{{1, 4}}, r.changes)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	b, _, r := newTestBridge()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b.Run(ctx, SystemSleeper{}, 1, nil)

	assert.Empty(t, r.changes)
}
