package propagation

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/abrezinsky/courtboard/internal/logger"
)

// ChannelTransport is an in-process Transport backed by a watermill GoChannel.
type ChannelTransport struct {
	pubsub *gochannel.GoChannel
}

func NewChannelTransport(log logger.Logger) *ChannelTransport {
	return &ChannelTransport{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, NewWatermillLogger(log)),
	}
}

func (c *ChannelTransport) Publish(_ context.Context, topic string, payload []byte) error {
	return c.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (c *ChannelTransport) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	messages, err := c.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range messages {
			payload := msg.Payload
			msg.Ack()
			select {
			case out <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *ChannelTransport) Close() error {
	return c.pubsub.Close()
}

// watermillLogger adapts logger.Logger to watermill.LoggerAdapter.
type watermillLogger struct {
	log logger.Logger
}

// NewWatermillLogger routes watermill's internal logs through log.
func NewWatermillLogger(log logger.Logger) watermill.LoggerAdapter {
	return watermillLogger{log: log}
}

func fieldArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.log.Error(msg, append(fieldArgs(fields), "error", err)...)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.log.Info(msg, fieldArgs(fields)...)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.log.Debug(msg, fieldArgs(fields)...)
}

// Trace is folded into Debug; slog has no trace level.
func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.log.Debug(msg, fieldArgs(fields)...)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: w.log.With(fieldArgs(fields)...)}
}
