// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

//go:build nats

// Build with NATS-backed wake notification:
//
//	go build -tags nats ./cmd/worker

package jobqueue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/tablepulse/internal/logging"
)

const wakeTopic = "tablepulse.jobqueue.wake"

// natsWake publishes a fire-and-forget message on wakeTopic whenever a job
// is enqueued, and fans every received message into a single buffered
// channel workers select on. Plain core NATS (JetStream disabled): a
// missed wake is never a correctness problem, only a missed optimization.
type natsWake struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	ch         chan struct{}
	cancel     context.CancelFunc
}

// NewNATSWake connects a WakeNotifier to the given NATS URL.
func NewNATSWake(ctx context.Context, url string) (WakeNotifier, error) {
	logger := watermill.NewStdLogger(false, false)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: []natsgo.Option{natsgo.RetryOnFailedConnect(true)},
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create wake publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:         url,
		NatsOptions: []natsgo.Option{natsgo.RetryOnFailedConnect(true)},
		Unmarshaler: &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("create wake subscriber: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := sub.Subscribe(subCtx, wakeTopic)
	if err != nil {
		cancel()
		pub.Close()
		sub.Close()
		return nil, fmt.Errorf("subscribe to wake topic: %w", err)
	}

	w := &natsWake{publisher: pub, subscriber: sub, ch: make(chan struct{}, 1), cancel: cancel}
	go w.fanIn(subCtx, messages)
	return w, nil
}

func (w *natsWake) fanIn(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			msg.Ack()
			select {
			case w.ch <- struct{}{}:
			default:
			}
		}
	}
}

func (w *natsWake) Notify() {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := w.publisher.Publish(wakeTopic, msg); err != nil {
		logging.Ctx(context.Background()).Debug().Err(err).Msg("wake notify publish failed, worker still has its poll tick")
	}
}

func (w *natsWake) Chan() <-chan struct{} { return w.ch }

func (w *natsWake) Close() error {
	w.cancel()
	pubErr := w.publisher.Close()
	subErr := w.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
