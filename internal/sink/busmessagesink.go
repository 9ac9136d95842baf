// If you are AI: This file implements BusMessageSink, publishing bot output messages by kind to per-kind bus channels.

package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/busclient"
	"nonchalant/internal/logging"
	"nonchalant/internal/reactive"
)

// BusMessageSink publishes bot.BotOutput messages by kind to per-kind
// channels via a busclient.Client, fanning out by message kind instead
// of by destination.
type BusMessageSink struct {
	client   busclient.Client
	channels map[bot.MessageKind]string
	log      *logrus.Entry
}

// NewBusMessageSink builds a BusMessageSink publishing each kind to its
// configured channel name.
func NewBusMessageSink(client busclient.Client, channels map[bot.MessageKind]string) *BusMessageSink {
	return &BusMessageSink{client: client, channels: channels, log: logging.For("sink.bus")}
}

// Drain subscribes to src with unbounded demand and publishes every
// BotMessage until src completes, returning the first publish error
// encountered.
func (s *BusMessageSink) Drain(ctx context.Context, src reactive.Publisher[bot.BotOutput]) error {
	errCh := make(chan error, 1)
	done := make(chan struct{})
	src.Subscribe(reactive.Funcs[bot.BotOutput]{
		Subscribe: func(sub reactive.Subscription) { sub.Request(1 << 30) },
		Next: func(v bot.BotOutput) {
			if err := s.publish(ctx, v); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		},
		Err: func(err error) {
			select {
			case errCh <- err:
			default:
			}
			close(done)
		},
		Complete: func() { close(done) },
	})
	<-done
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// publish routes one output element to its channel.
func (s *BusMessageSink) publish(ctx context.Context, v bot.BotOutput) error {
	msg, ok := v.(bot.BotMessage)
	if !ok {
		s.log.Debug("bus message sink skipping non-message output element")
		return nil
	}
	channel, ok := s.channels[msg.Kind]
	if !ok {
		return fmt.Errorf("no channel configured for message kind %s", msg.Kind)
	}
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Kind, err)
	}
	return s.client.Publish(ctx, channel, data, busclient.RequestCallbacks{
		OnError: func(err error) { s.log.WithError(err).WithField("channel", channel).Error("publish failed") },
	})
}
