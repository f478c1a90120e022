package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi2dmx/internal/bridge"
	"midi2dmx/internal/clientmqtt"
	"midi2dmx/internal/config"
	"midi2dmx/internal/engine"
)

type emptySerial struct{}

func (emptySerial) Begin() error            { return nil }
func (emptySerial) Available() int          { return 0 }
func (emptySerial) ReadByte() (byte, error) { return 0, nil }

func TestStaticScene(t *testing.T) {
	slots := StaticScene(config.SceneConf{
		Red:      []uint8{1, 4},
		Blue:     []uint8{3},
		RedValue: 21, GreenValue: 42, BlueValue: 63,
	})

	require.Len(t, slots, 3)
	assert.Equal(t, []uint8{1, 4}, slots[0].Channels.Values())
	assert.Equal(t, uint8(21), slots[0].Value)
	assert.Empty(t, slots[1].Channels.Values())
	assert.Equal(t, []uint8{3}, slots[2].Channels.Values())
}

func TestDrainCommands(t *testing.T) {
	var changes [][2]uint8
	b := bridge.New(1, func(channel, level uint8) {
		changes = append(changes, [2]uint8{channel, level})
	}, emptySerial{})
	b.SetStaticScene(StaticScene(config.SceneConf{Red: []uint8{5}, RedValue: 100})...)

	commands := make(chan clientmqtt.Command, 3)
	commands <- clientmqtt.Command{Kind: clientmqtt.CommandStaticScene}
	commands <- clientmqtt.Command{Kind: clientmqtt.CommandAttenuation, Attenuation: 0}
	drainCommands(b, commands)

	assert.Equal(t, engine.SceneStatic, b.ActiveScene())
	assert.Equal(t, [][2]uint8{{5, 100}}, changes)
	assert.Empty(t, commands)

	commands <- clientmqtt.Command{Kind: clientmqtt.CommandDynamicScene}
	drainCommands(b, commands)

	assert.Equal(t, engine.SceneDynamic, b.ActiveScene())
	assert.Equal(t, [][2]uint8{{5, 100}, {5, 0}}, changes)
}

func TestConvertConfigClientMQTT(t *testing.T) {
	got := ConvertConfigClientMQTT(config.MQTTConf{ClientID: "id", Host: "h", Port: "1883", Qos: 1, Topic: "t"})

	assert.Equal(t, clientmqtt.MQTTConf{ClientID: "id", Schema: "tcp", Host: "h", Port: "1883", Qos: 1, Topic: "t"}, got)
}

func TestIdleHookStopsOnSerialFailure(t *testing.T) {
	b := bridge.New(1, func(uint8, uint8) {}, emptySerial{})
	commands := make(chan clientmqtt.Command, 1)
	failed := make(chan struct{})
	stopped := 0
	idle := idleHook(b, commands, failed, func() { stopped++ })

	commands <- clientmqtt.Command{Kind: clientmqtt.CommandStaticScene}
	idle()

	assert.Zero(t, stopped)
	assert.Equal(t, engine.SceneStatic, b.ActiveScene())

	close(failed)
	idle()

	assert.Equal(t, 1, stopped)
}

func TestIdleHookEndsRun(t *testing.T) {
	b := bridge.New(1, func(uint8, uint8) {}, emptySerial{})
	failed := make(chan struct{})
	close(failed)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan struct{})
	go func() {
		b.Run(ctx, bridge.SystemSleeper{}, 1, idleHook(b, nil, failed, stop))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the serial port failed")
	}
}
