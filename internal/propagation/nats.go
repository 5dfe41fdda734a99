package propagation

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/abrezinsky/courtboard/internal/logger"
)

// NATSTransport carries the topic between machines over a NATS subject.
type NATSTransport struct {
	conn *nats.Conn
	log  logger.Logger
}

// NewNATSTransport connects to url and keeps reconnecting for as long as it is open.
func NewNATSTransport(url string, log logger.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(url,
		nats.Name("courtboard"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSTransport{conn: conn, log: log}, nil
}

func (n *NATSTransport) Publish(_ context.Context, topic string, payload []byte) error {
	return n.conn.Publish(topic, payload)
}

func (n *NATSTransport) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := n.conn.ChanSubscribe(topic, msgs)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Unsubscribe(); err != nil && n.conn.IsConnected() {
				n.log.Debug("NATS unsubscribe failed", "topic", topic, "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				select {
				case out <- msg.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (n *NATSTransport) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
