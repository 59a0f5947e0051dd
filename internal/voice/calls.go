package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallRecord is the analysis summary of a finished voice call.
type CallRecord struct {
	CallID     string `json:"call_id"`
	AgentID    string `json:"agent_id"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
	Successful bool   `json:"successful"`
	DurationMS int64  `json:"duration_ms"`
}

// CallStore persists post-call analysis records.
type CallStore interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}

type callQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCallStore stores call records in the calls table.
type PostgresCallStore struct {
	db callQuerier
}

// NewPostgresCallStore creates a call store backed by the given pool.
func NewPostgresCallStore(pool *pgxpool.Pool) *PostgresCallStore {
	if pool == nil {
		panic("voice: pgx pool is required")
	}
	return &PostgresCallStore{db: pool}
}

// NewPostgresCallStoreWithDB allows injecting a mock connection in tests.
func NewPostgresCallStoreWithDB(db callQuerier) *PostgresCallStore {
	return &PostgresCallStore{db: db}
}

// RecordCall inserts the record. Vendor webhooks retry, so a replayed
// call_id is treated as already recorded.
func (s *PostgresCallStore) RecordCall(ctx context.Context, rec CallRecord) error {
	query := `
		INSERT INTO calls (id, call_id, agent_id, from_number, to_number, transcript, summary, sentiment, successful, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (call_id) DO NOTHING`

	_, err := s.db.Exec(ctx, query,
		uuid.New().String(),
		rec.CallID,
		rec.AgentID,
		rec.FromNumber,
		rec.ToNumber,
		rec.Transcript,
		rec.Summary,
		rec.Sentiment,
		rec.Successful,
		rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("voice: record call: %w", err)
	}
	return nil
}

// InMemoryCallStore keeps call records in memory. Used when no database is
// configured.
type InMemoryCallStore struct {
	mu      sync.Mutex
	records map[string]CallRecord
}

// NewInMemoryCallStore creates an empty in-memory call store.
func NewInMemoryCallStore() *InMemoryCallStore {
	return &InMemoryCallStore{records: make(map[string]CallRecord)}
}

// RecordCall stores the record, keeping the first write for a call_id.
func (s *InMemoryCallStore) RecordCall(_ context.Context, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.CallID]; !ok {
		s.records[rec.CallID] = rec
	}
	return nil
}

// Get returns a stored record by call ID.
func (s *InMemoryCallStore) Get(callID string) (CallRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[callID]
	return rec, ok
}
