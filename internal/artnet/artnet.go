package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Haba1234/go-artnet"

	"midi2dmx/internal/config"
	"midi2dmx/internal/logger"
)

const (
	sendQueueSize  = 100
	debugInterval  = 30 * time.Second
	defaultMaxFPS  = 40
	senderLogLevel = "info"
)

// ArtNet is transport for the ArtNet protocol (DMX over UDP/IP).
type ArtNet struct {
	logger      logger.Logger
	sender      *artnet.Controller
	state       *State
	universe    uint16
	sendTrigger chan UniverseStateMap
	ctx         context.Context
}

// Controller is a convenience interface to use within this application.
type Controller interface {
	SetDMXChannelValue(value ChannelValue)
	OnChange(channel, level uint8)
	Start(ctx context.Context) error
	Stop()
}

var _ Controller = (*ArtNet)(nil)

// NewController returns an art-net sender bound to the interface inside cfg.Network.
func NewController(log logger.Logger, cfg config.ArtNetConf) (*ArtNet, error) {
	ip, err := FindArtNetIP(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}

	if len(ip) == 0 {
		return nil, errors.New("failed to find the art-net IP: No interface found")
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}

	host = strings.ToLower(strings.Split(host, ".")[0])
	log.Module("art-net").Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	fps := cfg.MaxFPS
	if fps <= 0 {
		fps = defaultMaxFPS
	}

	control := newArtNet(log, cfg.Universe)
	control.sender = artnet.NewController(host, ip, artnet.NewDefaultLogger(senderLogLevel), artnet.MaxFPS(fps))
	return control, nil
}

func newArtNet(log logger.Logger, universe uint16) *ArtNet {
	return &ArtNet{
		logger:      log,
		state:       NewState(),
		universe:    universe,
		sendTrigger: make(chan UniverseStateMap, sendQueueSize),
	}
}

// Start the ArtNet.
func (c *ArtNet) Start(ctx context.Context) error {
	if err := c.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}

	c.ctx = ctx
	go c.sendBackground()
	go c.debugDevices()
	return nil
}

// Stop the ArtNet.
func (c *ArtNet) Stop() {
	c.sender.Stop()
}

// OnChange matches engine.OnChangeFunc and writes one channel of the configured universe.
func (c *ArtNet) OnChange(channel, level uint8) {
	c.SetDMXChannelValue(ChannelValue{Universe: c.universe, Channel: uint16(channel), Value: level})
}

func (c *ArtNet) SetDMXChannelValue(value ChannelValue) {
	c.state.SetChannel(value.Universe, value.Channel, value.Value)
	c.triggerSend()
}

// triggerSend queues a snapshot. Every snapshot holds the full state, so a
// full queue drops the newest one without losing data.
func (c *ArtNet) triggerSend() {
	select {
	case c.sendTrigger <- c.state.Get():
	default:
		c.logger.Module("art-net").Debug("DMX. send queue full, snapshot skipped")
	}
}

func (c *ArtNet) sendBackground() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.sendTrigger:
			for u, dmx := range data {
				c.logger.Module("art-net").Debugf("DMX. Sending universe %v", u)
				c.sender.SendDMXToAddress(dmx.toByteSlice(), universeToAddress(u))
			}
		}
	}
}

// universeToAddress converts a dmx universe to art-net address
// universe: старший байт - SubUni, младший байт - Net.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}

// NodeToString returns a string representation of the given Node.
func NodeToString(n *artnet.ControlledNode) string {
	var inputs, outputs []string
	for _, p := range n.Node.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	for _, p := range n.Node.OutputPorts {
		outputs = append(outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	return fmt.Sprintf(
		" | IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.UDPAddress.String(), n.Node.Name, n.Node.Type,
		n.Node.Manufacturer, n.Node.Description,
		strings.Join(inputs, "; "), strings.Join(outputs, "; "),
	)
}

func (c *ArtNet) debugDevices() {
	t := time.NewTicker(debugInterval)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			nodes := make([]string, 0, len(c.sender.Nodes))
			for _, n := range c.sender.Nodes {
				nodes = append(nodes, NodeToString(n))
			}
			c.logger.Module("art-net").Debugf("Currently %d devices are registered: %v", len(nodes), nodes)
		}
	}
}
