package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"midi2dmx/internal/artnet"
	"midi2dmx/internal/bridge"
	"midi2dmx/internal/clientmqtt"
	"midi2dmx/internal/config"
	"midi2dmx/internal/dmx"
	"midi2dmx/internal/engine"
	"midi2dmx/internal/logger"
	"midi2dmx/internal/serialport"
	"midi2dmx/internal/vector"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	log.Module("logger").Debug("newLogger created ok")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("midi2dmx stopped: ", err.Error())
		cancel()
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Log) error {
	var sinks []engine.OnChangeFunc

	if cfg.ArtNet.Enabled {
		a, err := artnet.NewController(log, cfg.ArtNet)
		if err != nil {
			return fmt.Errorf("error while creating a new controller art-net: %w", err)
		}
		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("failed to start art-net service: %w", err)
		}
		defer a.Stop()
		sinks = append(sinks, a.OnChange)
		log.Module("art-net").Debug("NewController created ok")
	}

	// Канал для команд MQTT.
	commands := make(chan clientmqtt.Command, 10)

	if cfg.MQTT.Enabled {
		client := clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
		if err := client.Start(ctx, commands); err != nil {
			return fmt.Errorf("failed to start MQTT service: %w", err)
		}
		defer func() {
			if err := client.Stop(); err != nil {
				log.Error("failed to stop MQTT service:", err.Error())
			}
		}()
		sinks = append(sinks, client.OnChange)
		log.Module("mqtt").Debug("NewClient created ok")
	}

	onChange := func(channel, level uint8) {
		log.Module("dmx").Debugf("channel %d -> %d", channel, level)
		for _, sink := range sinks {
			sink(channel, level)
		}
	}

	if ports, err := serialport.ListPorts(); err == nil {
		log.Module("serial").Debugf("available ports: %v", ports)
	}

	port := serialport.New(log, cfg.Serial)
	b := bridge.New(cfg.Midi.Channel, onChange, port, bridge.WithLogger(log))
	if err := b.Begin(); err != nil {
		return err
	}
	defer port.Close()

	b.SetStaticScene(StaticScene(cfg.Scene)...)
	b.SetAttenuation(cfg.DMX.Attenuation)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	log.Module("bridge").Infof("listening on MIDI channel %d", cfg.Midi.Channel)
	b.Run(ctx, bridge.SystemSleeper{}, cfg.Serial.PollIntervalMs, idleHook(b, commands, port.Failed(), stop))
	return port.Err()
}

// idleHook runs between polls. It applies remote commands and stops the
// loop once the serial pump has failed.
func idleHook(b *bridge.Bridge, commands <-chan clientmqtt.Command, failed <-chan struct{}, stop context.CancelFunc) func() {
	return func() {
		drainCommands(b, commands)
		select {
		case <-failed:
			stop()
		default:
		}
	}
}

// drainCommands applies the pending remote commands without blocking.
func drainCommands(b *bridge.Bridge, commands <-chan clientmqtt.Command) {
	for {
		select {
		case cmd := <-commands:
			applyCommand(b, cmd)
		default:
			return
		}
	}
}

func applyCommand(b *bridge.Bridge, cmd clientmqtt.Command) {
	switch cmd.Kind {
	case clientmqtt.CommandStaticScene:
		b.SwitchToStaticScene()
	case clientmqtt.CommandDynamicScene:
		b.SwitchToDynamicScene()
	case clientmqtt.CommandAttenuation:
		b.SetAttenuation(cmd.Attenuation)
	}
}

// StaticScene builds the RGB slots from the configuration.
func StaticScene(cfg config.SceneConf) []dmx.Slot {
	channels := dmx.RGBChannels{
		Red:   *vector.From(len(cfg.Red), cfg.Red),
		Green: *vector.From(len(cfg.Green), cfg.Green),
		Blue:  *vector.From(len(cfg.Blue), cfg.Blue),
	}
	return dmx.RGBScene(channels, dmx.RGB{Red: cfg.RedValue, Green: cfg.GreenValue, Blue: cfg.BlueValue})
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID: cfg.ClientID,
		Schema:   "tcp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Qos:      cfg.Qos,
		Topic:    cfg.Topic,
	}
}
