package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriberBuffer bounds how far a subscriber may lag before NATS drops
// messages for it as a slow consumer.
const subscriberBuffer = 64

// connect dials url with reconnects enabled. extra options are applied last.
func connect(url, name string, extra ...nats.Option) (*nats.Conn, error) {
	opts := append([]nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, extra...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes each event as JSON on the subject named by its
// topic.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "agritag", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending events before disconnecting. The connection is
// closed even when the flush fails.
func (p *NATSPublisher) Close() error {
	var err error
	if p.conn.IsConnected() {
		if ferr := p.conn.FlushTimeout(2 * time.Second); ferr != nil {
			err = fmt.Errorf("flushing events: %w", ferr)
		}
	}
	p.conn.Close()
	return err
}

// NATSSubscriber reads events from NATS for the watch command.
type NATSSubscriber struct {
	conn *nats.Conn

	mu      sync.Mutex
	next    int
	cancels map[int]func()
}

// NewNATSSubscriber connects to url; opts can add disconnect and reconnect
// handlers.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "agritag-watch", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc, cancels: make(map[int]func())}, nil
}

func (s *NATSSubscriber) Subscribe(pattern string) (<-chan Message, func(), error) {
	raw := make(chan *nats.Msg, subscriberBuffer)
	sub, err := s.conn.ChanSubscribe(pattern, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", pattern, err)
	}
	// Messages published on other connections are only routed once the
	// server has seen the subscription.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", pattern, err)
	}

	out := make(chan Message, subscriberBuffer)
	stop := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case m := <-raw:
				select {
				case out <- Message{Topic: m.Subject, Data: m.Data}:
				case <-stop:
					return
				}
			}
		}
	}()

	s.mu.Lock()
	s.next++
	key := s.next
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			close(stop)
			s.mu.Lock()
			delete(s.cancels, key)
			s.mu.Unlock()
		})
	}
	s.mu.Lock()
	s.cancels[key] = cancel
	s.mu.Unlock()
	return out, cancel, nil
}

// Close ends every open subscription, closing its channel, then disconnects.
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	open := make([]func(), 0, len(s.cancels))
	for _, cancel := range s.cancels {
		open = append(open, cancel)
	}
	s.mu.Unlock()

	for _, cancel := range open {
		cancel()
	}
	s.conn.Close()
	return nil
}
