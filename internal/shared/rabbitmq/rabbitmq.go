package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"comanda/internal/shared/config"
	"comanda/internal/shared/logger"
)

// Exchange is the durable fanout exchange order status updates go to.
// Out-of-process listeners bind their own queues to it.
const Exchange = "order_updates"

// Client is a RabbitMQ connector with auto-reconnect and idempotent topology
// setup, used only for publishing.
type Client struct {
	url    string
	logger *logger.Logger
	logCtx context.Context // survives the caller's ctx across reconnects

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed    chan struct{}
	reconnect chan struct{}
}

// Connect establishes the connection and starts a background watcher that
// reconnects on failures with exponential backoff.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)

	client := &Client{
		url:       url,
		logger:    log,
		logCtx:    context.WithoutCancel(ctx),
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}

	// single attempt here; the watcher owns retries
	if err := client.connectOnce(ctx); err != nil {
		return nil, err
	}
	go client.watch()

	return client, nil
}

// Publish sends a persistent JSON message to the fanout exchange.
func (client *Client) Publish(ctx context.Context, body []byte) error {
	client.mu.RLock()
	conn := client.conn
	ch := client.channel
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(pubCtx,
		Exchange, "", false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

// Close stops the watcher and closes AMQP resources.
func (client *Client) Close() {
	select {
	case <-client.closed:
	default:
		close(client.closed)
	}

	client.mu.Lock()
	if client.channel != nil {
		_ = client.channel.Close()
		client.channel = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
	client.mu.Unlock()
}

// connectOnce dials, declares topology, and installs the close watcher.
func (client *Client) connectOnce(ctx context.Context) error {
	start := time.Now()

	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(Exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	client.mu.Lock()
	client.conn = conn
	if client.channel != nil {
		_ = client.channel.Close()
	}
	client.channel = ch
	client.mu.Unlock()

	go func() {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-client.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}

		select {
		case client.reconnect <- struct{}{}:
		default:
		}
	}()

	client.logger.Info(ctx, "rabbitmq_connected", "connected to RabbitMQ, exchange "+Exchange, map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// watch reconnects with exponential backoff whenever the connection drops.
func (client *Client) watch() {
	backoff := time.Second
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
			for {
				select {
				case <-client.closed:
					return
				default:
				}

				ctx, cancel := context.WithTimeout(client.logCtx, 30*time.Second)
				err := client.connectOnce(ctx)
				cancel()
				if err == nil {
					backoff = time.Second
					client.logger.Info(client.logCtx, "rabbitmq_reconnected", "reconnected to RabbitMQ", nil)
					break
				}

				client.logger.Error(client.logCtx, "rabbitmq_reconnect_failed", "RabbitMQ reconnect failed", err)
				time.Sleep(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
				}
			}
		}
	}
}
