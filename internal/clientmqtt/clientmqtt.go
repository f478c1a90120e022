package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"midi2dmx/internal/logger"
)

const (
	publishQueueSize = 256
	tokenTimeout     = 5 * time.Second
	disconnectQuiesc = 500

	suffixDMX         = "/dmx"
	suffixScene       = "/scene"
	suffixAttenuation = "/attenuation"
)

var (
	ErrUnknownTopic   = errors.New("unknown topic")
	ErrInvalidPayload = errors.New("invalid payload")
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	commands  chan<- Command
	changes   chan DMXCommand
}

// MQTTClient is a convenience interface to use within this application.
type MQTTClient interface {
	Start(ctx context.Context, commands chan<- Command) error
	Stop() error
	OnChange(channel, level uint8)
}

var _ MQTTClient = (*ClientMQTT)(nil)

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		changes:   make(chan DMXCommand, publishQueueSize),
	}
}

func (c *ClientMQTT) Start(ctx context.Context, commands chan<- Command) error {
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.commands = commands

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	go c.publishBackground()

	c.log.Module("mqtt").Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(disconnectQuiesc)
	}
	return nil
}

// OnChange matches engine.OnChangeFunc. The change is published asynchronously;
// when the queue is full it is dropped.
func (c *ClientMQTT) OnChange(channel, level uint8) {
	select {
	case c.changes <- DMXCommand{Channel: uint16(channel), Value: level}:
	default:
		c.log.Module("mqtt").Warn("publish queue full, change dropped")
	}
}

func (c *ClientMQTT) publishBackground() {
	topic := c.cfgClient.Topic + suffixDMX
	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.changes:
			msg, err := json.Marshal(cmd)
			if err != nil {
				c.log.Module("mqtt").Errorf("marshal change: %v", err)
				continue
			}
			token := c.client.Publish(topic, c.cfgClient.Qos, false, msg)
			if !token.WaitTimeout(tokenTimeout) {
				c.log.Module("mqtt").Warnf("publish to %s timed out", topic)
				continue
			}
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}
}

func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.Module("mqtt").Info("client connected to server")
	c.sub(c.cfgClient.Topic + suffixScene)
	c.sub(c.cfgClient.Topic + suffixAttenuation)
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Module("mqtt").Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Module("mqtt").Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	cmd, err := parseCommand(c.cfgClient.Topic, msg.Topic(), msg.Payload())
	if err != nil {
		c.log.Module("mqtt").Errorf("message could not be parsed: %v", err)
		return
	}
	select {
	case c.commands <- cmd:
	case <-c.ctx.Done():
	}
}

func (c *ClientMQTT) sub(topic string) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.Module("mqtt").Debugf("topic %s subscribed", topic)
	}()
}

// parseCommand maps <prefix>/scene ("static" or "dynamic") and
// <prefix>/attenuation (0-255) messages to commands.
func parseCommand(prefix, topic string, payload []byte) (Command, error) {
	value := strings.ToLower(strings.TrimSpace(string(payload)))
	switch topic {
	case prefix + suffixScene:
		switch value {
		case "static":
			return Command{Kind: CommandStaticScene}, nil
		case "dynamic":
			return Command{Kind: CommandDynamicScene}, nil
		}
		return Command{}, fmt.Errorf("%w: scene %q", ErrInvalidPayload, value)
	case prefix + suffixAttenuation:
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return Command{}, fmt.Errorf("%w: attenuation %q: %v", ErrInvalidPayload, value, err)
		}
		return Command{Kind: CommandAttenuation, Attenuation: uint8(n)}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}
