package mqttprobe

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/logging"
)

// DefaultAddress is where the probe broker listens unless told otherwise.
const DefaultAddress = ":1883"

// EventKind identifies what a client did.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventPublished
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventPublished:
		return "published"
	default:
		return "unknown"
	}
}

// Event is one observation made by the broker.
type Event struct {
	Kind     EventKind
	ClientID string
	Username string
	Remote   string
	Topic    string
	Payload  []byte
	At       time.Time
}

// Options configures a probe broker.
type Options struct {
	// Address is the TCP listen address, DefaultAddress when empty.
	Address string

	// Username and Password, when set, are the only credentials accepted.
	Username string
	Password string
}

// Broker is a throwaway MQTT broker that records what clients do.
type Broker struct {
	server *mqtt.Server
	tcp    *listeners.TCP
	events chan Event
}

// New creates a broker listening on opts.Address. Call Start to accept
// connections.
func New(opts Options) (*Broker, error) {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}

	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	if opts.Username != "" {
		err := server.AddHook(new(auth.Hook), &auth.Options{
			Ledger: &auth.Ledger{
				Auth: auth.AuthRules{
					{Username: auth.RString(opts.Username), Password: auth.RString(opts.Password), Allow: true},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add MQTT auth hook: %w", err)
		}
	} else if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("failed to add MQTT auth hook: %w", err)
	}

	b := &Broker{
		server: server,
		events: make(chan Event, 64),
	}
	if err := server.AddHook(&recordHook{events: b.events}, nil); err != nil {
		return nil, fmt.Errorf("failed to add MQTT probe hook: %w", err)
	}

	b.tcp = listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: opts.Address,
	})
	if err := server.AddListener(b.tcp); err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Address, err)
	}

	return b, nil
}

// Start accepts connections in the background.
func (b *Broker) Start() {
	go func() {
		if err := b.server.Serve(); err != nil {
			logging.Error("MQTT probe broker stopped", zap.Error(err))
		}
	}()
	logging.Info("MQTT probe broker listening", zap.String("addr", b.Addr()))
}

// Addr returns the bound listen address.
func (b *Broker) Addr() string {
	return b.tcp.Address()
}

// Events delivers observations in order. Events are dropped when nobody
// reads them.
func (b *Broker) Events() <-chan Event {
	return b.events
}

// Publish sends a message to subscribers, for example a command on the
// controller's control topic.
func (b *Broker) Publish(topic string, payload []byte) error {
	return b.server.Publish(topic, payload, false, 0)
}

// Close stops the broker and disconnects every client.
func (b *Broker) Close() error {
	return b.server.Close()
}

// recordHook turns broker callbacks into Events.
type recordHook struct {
	mqtt.HookBase
	events chan Event
}

func (h *recordHook) ID() string {
	return "ledsetup-probe"
}

func (h *recordHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnSessionEstablished,
		mqtt.OnDisconnect,
		mqtt.OnPublish,
	}, []byte{b})
}

// OnSessionEstablished fires only for clients that passed authentication.
func (h *recordHook) OnSessionEstablished(cl *mqtt.Client, pk packets.Packet) {
	h.emit(Event{
		Kind:     EventConnected,
		ClientID: cl.ID,
		Username: string(pk.Connect.Username),
		Remote:   cl.Net.Remote,
	})
}

func (h *recordHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	h.emit(Event{
		Kind:     EventDisconnected,
		ClientID: cl.ID,
		Remote:   cl.Net.Remote,
	})
}

func (h *recordHook) OnPublish(cl *mqtt.Client, pk packets.Packet) (packets.Packet, error) {
	if cl.Net.Inline {
		return pk, nil
	}
	h.emit(Event{
		Kind:     EventPublished,
		ClientID: cl.ID,
		Remote:   cl.Net.Remote,
		Topic:    pk.TopicName,
		Payload:  bytes.Clone(pk.Payload),
	})
	return pk, nil
}

func (h *recordHook) emit(ev Event) {
	ev.At = time.Now()
	logging.Debug("MQTT probe event",
		zap.Stringer("kind", ev.Kind),
		zap.String("client_id", ev.ClientID),
		zap.String("topic", ev.Topic),
	)
	select {
	case h.events <- ev:
	default:
		logging.Warn("MQTT probe event dropped", zap.Stringer("kind", ev.Kind))
	}
}
