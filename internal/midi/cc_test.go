package midi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"midi2dmx/internal/dmx"
)

var boundaryInputs = []uint8{0, 1, MaxValue - 1, MaxValue, MaxValue + 1, 254, 255}

func TestContinuousControllerDefault(t *testing.T) {
	var cc ContinuousController

	assert.True(t, cc.Equal(NewContinuousController(0, 0)))
}

func TestContinuousControllerEqual(t *testing.T) {
	cc := NewContinuousController(21, 42)

	assert.True(t, cc.Equal(cc))
	assert.False(t, cc.Equal(ContinuousController{}))
}

func TestContinuousControllerClipsInput(t *testing.T) {
	cc := NewContinuousController(200, 255)

	assert.Equal(t, uint8(MaxValue), cc.Channel())
	assert.Equal(t, uint8(MaxValue), cc.Value())
}

func TestToDmx(t *testing.T) {
	for _, channel := range boundaryInputs {
		for _, value := range boundaryInputs {
			t.Run(fmt.Sprintf("%d_%d", channel, value), func(t *testing.T) {
				level := value * 2
				if value > MaxValue {
					level = dmx.MaxLevel
				}
				want := dmx.NewValue(min(channel, MaxValue), level)

				got := NewContinuousController(channel, value).ToDmx()

				assert.True(t, got.IsSet())
				assert.Truef(t, want.Equal(got), "want (%d,%d) got (%d,%d)",
					want.Channel(), want.Level(), got.Channel(), got.Level())
			})
		}
	}
}

func TestToDmxMaxValue(t *testing.T) {
	got := NewContinuousController(1, MaxValue).ToDmx()

	assert.Equal(t, uint8(254), got.Level())
}
