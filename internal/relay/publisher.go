package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/events"
)

// JetStreamConfig holds NATS relay settings.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
	MaxMsgs       int64
	Replicas      int
}

// DefaultJetStreamConfig returns the default relay configuration.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "GAME_EVENTS",
		SubjectPrefix: "game.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		MaxAge:        24 * time.Hour,
		MaxMsgs:       -1,
		Replicas:      1,
	}
}

// Publisher mirrors every session event onto a JetStream stream so other
// instances (or auditing consumers) can observe session traffic. It
// implements game.Broadcaster; publishing happens off the caller's goroutine
// through a buffered queue so session operations never block on the broker.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	queue  chan events.Event
}

// NewPublisher connects to NATS and ensures the stream exists.
func NewPublisher(cfg JetStreamConfig) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{
		nc:     nc,
		js:     js,
		config: cfg,
		queue:  make(chan events.Event, 1000),
	}

	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Session event stream",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		MaxMsgs:     p.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    p.config.Replicas,
	}

	if _, err := p.js.Stream(ctx, p.config.StreamName); err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// Start drains the publish queue until ctx is done.
func (p *Publisher) Start(ctx context.Context) {
	log.Info().Str("stream", p.config.StreamName).Msg("event relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event relay shutting down")
			return
		case evt := <-p.queue:
			p.publish(ctx, evt)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, evt events.Event) {
	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, evt.Type)

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("marshal relay event")
		return
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		log.Error().
			Err(err).
			Str("subject", subject).
			Str("session_id", evt.SessionID).
			Msg("failed to publish event")
		return
	}

	log.Debug().
		Str("subject", subject).
		Str("session_id", evt.SessionID).
		Msg("event relayed")
}

// Emit implements game.Broadcaster.
func (p *Publisher) Emit(evt events.Event) {
	select {
	case p.queue <- evt:
	default:
		log.Warn().Str("session_id", evt.SessionID).Msg("relay queue full, dropping event")
	}
}

// EmitTo implements game.Broadcaster. Seat-targeted events are relayed like
// any other; consumers filter on their side.
func (p *Publisher) EmitTo(seatID string, evt events.Event) {
	p.Emit(evt)
}

// Close drops the NATS connection.
func (p *Publisher) Close() {
	p.nc.Close()
}
