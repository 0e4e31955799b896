// Package journal keeps an audit trail of tool invocations in Postgres.
// It is not meeting-state persistence: nothing is ever read back.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const defaultWriteTimeout = 3 * time.Second

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"3s"`
}

// Entry is one finished tool call.
type Entry struct {
	Tool      string
	Params    map[string]any
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

type Journal interface {
	Record(ctx context.Context, entry Entry)
	Close() error
}

var (
	_ Journal = (*Store)(nil)
	_ Journal = Noop{}
)

// Noop discards entries. It is used when no DSN is configured.
type Noop struct{}

func (Noop) Record(context.Context, Entry) {}

func (Noop) Close() error { return nil }

type Row struct {
	bun.BaseModel `bun:"table:meeting_tool_calls,alias:mtc"`

	ID         uuid.UUID      `bun:"id,pk,type:uuid"`
	Tool       string         `bun:"tool,notnull"`
	Params     map[string]any `bun:"params,type:jsonb"`
	Error      string         `bun:"error,nullzero"`
	OK         bool           `bun:"ok,notnull"`
	DurationMS int64          `bun:"duration_ms,notnull"`
	CreatedAt  time.Time      `bun:"created_at,notnull"`
}

func newRow(entry Entry) *Row {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	created := entry.StartedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &Row{
		ID:         id,
		Tool:       entry.Tool,
		Params:     entry.Params,
		Error:      strings.TrimSpace(entry.Error),
		OK:         strings.TrimSpace(entry.Error) == "",
		DurationMS: entry.Duration.Milliseconds(),
		CreatedAt:  created.UTC(),
	}
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

type Store struct {
	db           *bun.DB
	logger       zerolog.Logger
	writeTimeout time.Duration
}

// Open returns Noop when cfg.DSN is empty. Otherwise it connects, creates the
// table if missing and returns a Store.
func Open(ctx context.Context, cfg Config, opts ...Option) (Journal, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return Noop{}, nil
	}

	store := newStore(dsn, cfg, opts...)
	if err := store.db.PingContext(ctx); err != nil {
		_ = store.db.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if err := store.createSchema(ctx); err != nil {
		_ = store.db.Close()
		return nil, fmt.Errorf("journal: create table: %w", err)
	}
	return store, nil
}

func newStore(dsn string, cfg Config, opts ...Option) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	store := &Store{
		db:           bun.NewDB(sqldb, pgdialect.New()),
		logger:       log.Logger,
		writeTimeout: cfg.WriteTimeout,
	}
	if store.writeTimeout <= 0 {
		store.writeTimeout = defaultWriteTimeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *Store) createSchema(ctx context.Context) error {
	_, err := s.createTableQuery().Exec(ctx)
	return err
}

func (s *Store) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model((*Row)(nil)).IfNotExists()
}

func (s *Store) insertQuery(row *Row) *bun.InsertQuery {
	return s.db.NewInsert().Model(row)
}

// Record inserts entry. Failures are logged and otherwise ignored so a slow
// or unavailable database never affects the tool result.
func (s *Store) Record(ctx context.Context, entry Entry) {
	row := newRow(entry)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	if _, err := s.insertQuery(row).Exec(writeCtx); err != nil {
		s.logger.Warn().Err(err).Str("tool", entry.Tool).Msg("journal write failed")
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
