package propagation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
)

// DefaultTopic is the cross-device channel name.
const DefaultTopic = "scoreboard_updates"

// Message types on the topic.
const (
	TypeScoreboardUpdate = "scoreboard_update"
	TypeShowTimeout      = "showTimeout"
)

// TopicMessage is the wire form of a topic message.
type TopicMessage struct {
	Type          string          `json:"type"`
	CourtID       string          `json:"courtId"`
	Data          json.RawMessage `json:"data,omitempty"`
	Team          models.Team     `json:"team,omitempty"`
	TimeoutNumber *int            `json:"timeoutNumber,omitempty"`
}

// Transport moves raw topic payloads between processes.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe delivers payloads until ctx is cancelled or the transport closes.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}

// Update is a decoded, validated topic message for one court.
type Update struct {
	Type          string
	CourtID       string
	State         models.MatchState
	Team          models.Team
	TimeoutNumber int
}

// VariantFunc looks up the variant configured for a court.
type VariantFunc func(courtID string) match.Variant

// Topic publishes and consumes scoreboard messages on a named transport topic.
type Topic struct {
	transport Transport
	name      string
	variants  VariantFunc
	log       logger.Logger
	metrics   *metrics.Metrics
}

// NewTopic binds a transport to a topic name. A nil variants func uses match.DefaultVariant.
func NewTopic(transport Transport, name string, variants VariantFunc, log logger.Logger, m *metrics.Metrics) *Topic {
	if name == "" {
		name = DefaultTopic
	}
	if variants == nil {
		variants = func(string) match.Variant { return match.DefaultVariant() }
	}
	return &Topic{transport: transport, name: name, variants: variants, log: log, metrics: m}
}

// Name returns the transport topic name.
func (t *Topic) Name() string {
	return t.name
}

// PublishUpdate announces a court's new state.
func (t *Topic) PublishUpdate(ctx context.Context, courtID string, state models.MatchState) error {
	data, err := match.Serialize(state)
	if err != nil {
		return fmt.Errorf("serialize state: %w", err)
	}
	return t.publish(ctx, TopicMessage{Type: TypeScoreboardUpdate, CourtID: courtID, Data: data})
}

// PublishTimeout announces that a timeout slot was just used (1-based) or reset (0).
func (t *Topic) PublishTimeout(ctx context.Context, courtID string, team models.Team, number int) error {
	return t.publish(ctx, TopicMessage{Type: TypeShowTimeout, CourtID: courtID, Team: team, TimeoutNumber: &number})
}

func (t *Topic) publish(ctx context.Context, msg TopicMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return t.transport.Publish(ctx, t.name, payload)
}

// Subscribe calls fn for every valid message addressed to courtID until ctx ends.
// An empty courtID receives every court. Unknown types are ignored; malformed
// messages are logged and dropped, as are messages whose listener panics.
func (t *Topic) Subscribe(ctx context.Context, courtID string, fn func(Update)) error {
	payloads, err := t.transport.Subscribe(ctx, t.name)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", t.name, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-payloads:
				if !ok {
					return
				}
				if update, ok := t.decode(payload, courtID); ok {
					t.deliver(update, fn)
				}
			}
		}
	}()
	return nil
}

// deliver calls fn, recovering a listener panic so the subscription keeps running.
func (t *Topic) deliver(update Update, fn func(Update)) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("Topic listener panicked", "topic", t.name, "court_id", update.CourtID, "type", update.Type, "error", fmt.Sprint(r))
			t.metrics.PropagationDropped(metrics.ChannelTopic)
		}
	}()
	fn(update)
}

// decode turns a raw payload into an Update. It reports false for messages
// that should not be delivered.
func (t *Topic) decode(payload []byte, courtID string) (Update, bool) {
	var msg TopicMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.log.Warn("Dropping malformed topic message", "topic", t.name, "error", err)
		t.metrics.PropagationDropped(metrics.ChannelTopic)
		return Update{}, false
	}
	if courtID != "" && msg.CourtID != courtID {
		return Update{}, false
	}

	update := Update{Type: msg.Type, CourtID: msg.CourtID}
	switch msg.Type {
	case TypeScoreboardUpdate:
		state, err := match.Decode(msg.Data, t.variants(msg.CourtID))
		if err != nil {
			t.log.Warn("Dropping invalid scoreboard update", "court_id", msg.CourtID, "error", err)
			t.metrics.PropagationDropped(metrics.ChannelTopic)
			return Update{}, false
		}
		update.State = state
	case TypeShowTimeout:
		if msg.TimeoutNumber == nil || (msg.Team != models.TeamA && msg.Team != models.TeamB) {
			t.log.Warn("Dropping invalid timeout message", "court_id", msg.CourtID)
			t.metrics.PropagationDropped(metrics.ChannelTopic)
			return Update{}, false
		}
		update.Team = msg.Team
		update.TimeoutNumber = *msg.TimeoutNumber
	default:
		return Update{}, false
	}
	return update, true
}

// Close closes the underlying transport.
func (t *Topic) Close() error {
	return t.transport.Close()
}
