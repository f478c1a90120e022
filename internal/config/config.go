package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

var (
	ErrInvalidMidiChannel  = errors.New("midi channel must be in [1, 16]")
	ErrInvalidBaudRate     = errors.New("serial baud rate must be positive")
	ErrMissingSerialPort   = errors.New("serial port is not set")
	ErrInvalidSceneChannel = errors.New("static scene channel must be in [0, 127]")
	ErrInvalidUniverse     = errors.New("art-net universe is out of range")
	ErrMissingMQTTServer   = errors.New("mqtt server is not set")
)

const (
	maxMidiChannel = 16
	maxDmxChannel  = 127
	maxUniverse    = 0x7fff
)

// Config структура конфигурации.
type Config struct {
	Logger LogConf    `toml:"logger"` // Logger - конфигурация регистратора.
	Midi   MidiConf   `toml:"midi"`   // Midi - канал MIDI.
	Serial SerialConf `toml:"serial"` // Serial - последовательный порт.
	DMX    DMXConf    `toml:"dmx"`    // DMX - параметры выхода.
	Scene  SceneConf  `toml:"scene"`  // Scene - статическая сцена.
	ArtNet ArtNetConf `toml:"artnet"` // ArtNet - передатчик DMX.
	MQTT   MQTTConf   `toml:"mqtt"`   // MQTT - конфигурация MQTT клиента.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level string `toml:"log-level"` // Level - уровень логирования.
}

// MidiConf configures the MIDI input.
type MidiConf struct {
	Channel uint8 `toml:"channel"` // Channel - MIDI channel 1-16.
}

// SerialConf configures the UART carrying MIDI bytes.
type SerialConf struct {
	Port           string `toml:"port"`             // Port - device path, e.g. /dev/ttyUSB0.
	Baud           int    `toml:"baud"`             // Baud - 31250 for a MIDI DIN link.
	PollIntervalMs uint16 `toml:"poll-interval-ms"` // PollIntervalMs - pause between two listens.
}

// DMXConf configures the output stage.
type DMXConf struct {
	Attenuation uint8 `toml:"attenuation"` // Attenuation - 0 (dark) to 255 (unity gain).
}

// SceneConf describes the static RGB scene.
type SceneConf struct {
	Red        []uint8 `toml:"red"`         // Red - channels of the red slot.
	Green      []uint8 `toml:"green"`       // Green - channels of the green slot.
	Blue       []uint8 `toml:"blue"`        // Blue - channels of the blue slot.
	RedValue   uint8   `toml:"red-value"`   // RedValue - level of the red slot.
	GreenValue uint8   `toml:"green-value"` // GreenValue - level of the green slot.
	BlueValue  uint8   `toml:"blue-value"`  // BlueValue - level of the blue slot.
}

// ArtNetConf configures the art-net transmitter.
type ArtNetConf struct {
	Enabled  bool   `toml:"enabled"`
	Network  string `toml:"network"`  // Network - CIDR the art-net interface lives in.
	Universe uint16 `toml:"universe"` // Universe: старший байт - SubUni, младший байт - Net.
	MaxFPS   int    `toml:"max-fps"`
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled  bool   `toml:"enabled"`
	ClientID string `toml:"clientID"` // ClientID - имя клиента.
	Host     string `toml:"server"`   // Host - адрес MQTT сервера.
	Port     string `toml:"port"`     // Port - порт MQTT сервера.
	User     string `toml:"user"`     // User - логин для подключения к MQTT серверу.
	Password string `toml:"password"` // Password - пароль для подключения к MQTT серверу.
	Qos      byte   `toml:"qos"`      // Qos - качество обслуживания.
	Topic    string `toml:"topic"`    // Topic - префикс топиков.
}

// Default returns the values used for keys missing from the file.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info"},
		Midi:   MidiConf{Channel: 1},
		Serial: SerialConf{Port: "/dev/ttyUSB0", Baud: 31250, PollIntervalMs: 1},
		DMX:    DMXConf{Attenuation: 255},
		ArtNet: ArtNetConf{Network: "192.168.6.0/24", MaxFPS: 40},
		MQTT:   MQTTConf{ClientID: "midi2dmx", Port: "1883", Topic: "midi2dmx"},
	}
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	// default values
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Validate checks the ranges the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Midi.Channel < 1 || c.Midi.Channel > maxMidiChannel {
		return fmt.Errorf("%w: got %d", ErrInvalidMidiChannel, c.Midi.Channel)
	}
	if c.Serial.Port == "" {
		return ErrMissingSerialPort
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBaudRate, c.Serial.Baud)
	}
	for _, channels := range [][]uint8{c.Scene.Red, c.Scene.Green, c.Scene.Blue} {
		for _, ch := range channels {
			if ch > maxDmxChannel {
				return fmt.Errorf("%w: got %d", ErrInvalidSceneChannel, ch)
			}
		}
	}
	if c.ArtNet.Enabled && c.ArtNet.Universe > maxUniverse {
		return fmt.Errorf("%w: got %d", ErrInvalidUniverse, c.ArtNet.Universe)
	}
	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return ErrMissingMQTTServer
	}
	return nil
}
