package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

const (
	DefaultExchange = "ms-auth.events"

	RoutingUserRegistered  = "auth.user.registered"
	RoutingUserDeactivated = "auth.user.deactivated"

	producer = "ms-auth"

	// How long a publish may wait for the broker's confirm.
	confirmWait = 150 * time.Millisecond
	// A Return for a mandatory publish may trail the Ack slightly.
	returnGrace = 25 * time.Millisecond
	// Applied when the caller's ctx carries no deadline.
	defaultPublishTimeout = 2 * time.Second
)

var (
	// ErrUnroutable means no queue is bound for the routing key.
	ErrUnroutable = errors.New("rabbitmq: message unroutable")
	// ErrNack means the broker refused the message.
	ErrNack = errors.New("rabbitmq: message nacked")
)

// envelope is the wire shape of every event on the exchange.
type envelope struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Producer   string    `json:"producer"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func newEnvelope(routingKey string, data any, at time.Time) envelope {
	return envelope{
		ID:         uuid.NewString(),
		Event:      routingKey,
		Producer:   producer,
		OccurredAt: at.UTC(),
		Data:       data,
	}
}

// Publisher emits account lifecycle events to a durable topic exchange with
// publisher confirms. Publishes are serialized; the channel is re-opened
// lazily after a failure.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return

	now func() time.Time
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{url: url, exchange: exchange, now: time.Now}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.dial(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) PublishUserRegistered(ctx context.Context, evt accounts.UserRegisteredEvent) error {
	return p.publish(ctx, RoutingUserRegistered, evt)
}

func (p *Publisher) PublishUserDeactivated(ctx context.Context, evt accounts.UserDeactivatedEvent) error {
	return p.publish(ctx, RoutingUserDeactivated, evt)
}

// PingContext reports whether the broker connection is open, so the publisher
// can serve as a readiness dependency.
func (p *Publisher) PingContext(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return domain.ErrRabbitUnavailable(errors.New("connection closed"))
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown()
	return nil
}

// dial opens a confirm-mode channel and declares the exchange. Callers hold mu.
func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return domain.ErrRabbitUnavailable(fmt.Errorf("rabbitmq dial: %w", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return domain.ErrRabbitUnavailable(fmt.Errorf("rabbitmq channel: %w", err))
	}

	setup := func() error {
		if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("exchange declare %q: %w", p.exchange, err)
		}
		if err := ch.Confirm(false); err != nil {
			return fmt.Errorf("confirm mode: %w", err)
		}
		return nil
	}
	if err := setup(); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return domain.ErrRabbitUnavailable(err)
	}

	p.conn, p.ch = conn, ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returns = ch.NotifyReturn(make(chan amqp.Return, 1))
	return nil
}

// teardown closes the channel and connection. Callers hold mu.
func (p *Publisher) teardown() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) publish(ctx context.Context, routingKey string, data any) error {
	env := newEnvelope(routingKey, data, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil {
		p.teardown()
		if err := p.dial(); err != nil {
			return err
		}
	}
	p.drain()

	msg := amqp.Publishing{
		MessageId:    env.ID,
		AppId:        producer,
		Type:         routingKey,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.OccurredAt,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, true, false, msg); err != nil {
		p.teardown()
		return domain.ErrRabbitUnavailable(fmt.Errorf("publish %s: %w", routingKey, err))
	}

	return p.awaitConfirm(ctx, routingKey)
}

// drain discards confirms and returns left over from an earlier publish that
// timed out, so they are not attributed to the next one.
func (p *Publisher) drain() {
	for {
		select {
		case <-p.confirms:
		case <-p.returns:
		default:
			return
		}
	}
}

func (p *Publisher) awaitConfirm(ctx context.Context, routingKey string) error {
	unroutable := func(ret amqp.Return) error {
		return fmt.Errorf("%w: key=%s code=%d text=%s", ErrUnroutable, routingKey, ret.ReplyCode, ret.ReplyText)
	}

	select {
	case ret := <-p.returns:
		return unroutable(ret)

	case conf := <-p.confirms:
		// Return normally precedes the Ack for mandatory messages.
		select {
		case ret := <-p.returns:
			return unroutable(ret)
		case <-time.After(returnGrace):
		}
		if !conf.Ack {
			return fmt.Errorf("%w: key=%s tag=%d", ErrNack, routingKey, conf.DeliveryTag)
		}
		return nil

	case <-time.After(confirmWait):
		return domain.ErrRabbitUnavailable(fmt.Errorf("confirm timeout for %s", routingKey))

	case <-ctx.Done():
		return ctx.Err()
	}
}
