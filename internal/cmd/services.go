package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/dictionary"
	"github.com/codered/server/internal/events"
	"github.com/codered/server/internal/game"
	"github.com/codered/server/internal/gateway"
	"github.com/codered/server/internal/httpapi"
	"github.com/codered/server/internal/relay"
)

// Services holds the wired application components.
type Services struct {
	Registry          *game.Registry
	ConnectionManager *gateway.ConnectionManager
	WebSocketHandler  *gateway.WebSocketHandler
	API               *httpapi.Handler
	Relay             *relay.Publisher
}

// fanoutBroadcaster delivers every session event to each sink in order.
type fanoutBroadcaster []game.Broadcaster

func (f fanoutBroadcaster) Emit(evt events.Event) {
	for _, b := range f {
		b.Emit(evt)
	}
}

func (f fanoutBroadcaster) EmitTo(seatID string, evt events.Event) {
	for _, b := range f {
		b.EmitTo(seatID, evt)
	}
}

// broadcasterRef lets the registry and connection manager reference each
// other: the manager routes inbound commands to the registry, the registry
// broadcasts through the manager.
type broadcasterRef struct {
	target game.Broadcaster
}

func (r *broadcasterRef) Emit(evt events.Event) { r.target.Emit(evt) }

func (r *broadcasterRef) EmitTo(seatID string, evt events.Event) { r.target.EmitTo(seatID, evt) }

func setupServices(ctx context.Context, config *Config) (*Services, error) {
	words, err := setupDictionary(ctx, config)
	if err != nil {
		return nil, err
	}

	ref := &broadcasterRef{}
	registry := game.NewRegistry(game.Deps{
		Broadcaster:  ref,
		Words:        words,
		Budget:       time.Duration(config.Game.BudgetMinutes) * time.Minute,
		PollInterval: config.Game.PollInterval,
		SyncInterval: config.Game.SyncInterval,
	})

	cm := gateway.NewConnectionManager(registry, gateway.DefaultConnectionConfig())

	sinks := fanoutBroadcaster{cm}

	var publisher *relay.Publisher
	if config.NATS.Enabled {
		natsCfg := relay.DefaultJetStreamConfig()
		natsCfg.URL = config.NATS.URL
		publisher, err = relay.NewPublisher(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("setup event relay: %w", err)
		}
		sinks = append(sinks, publisher)
	}
	ref.target = sinks

	return &Services{
		Registry:          registry,
		ConnectionManager: cm,
		WebSocketHandler:  gateway.NewWebSocketHandler(cm, registry),
		API:               httpapi.NewHandler(registry),
		Relay:             publisher,
	}, nil
}

// setupDictionary loads the word list from Postgres when a database is
// configured, falling back to the built-in development list.
func setupDictionary(ctx context.Context, config *Config) (*dictionary.Service, error) {
	if !config.Database.Enabled {
		return dictionary.NewService(nil), nil
	}

	dbCfg := databaseConfigFromEnv()
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := dictionary.NewRepository(pool)
	wordList, err := repo.LoadWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	log.Info().
		Int("words", len(wordList)).
		Str("database", dbCfg.Database).
		Msg("dictionary loaded from database")
	return dictionary.NewService(wordList), nil
}
