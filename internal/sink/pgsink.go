package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/edgevet/edgevet/internal/metrics"
	"github.com/edgevet/edgevet/internal/signal"
)

// PGConfig holds configuration for the Postgres sink.
type PGConfig struct {
	DSN       string
	Table     string
	BatchSize int
	FlushMS   int
	UseCopy   bool // COPY for bulk loads, multi-row INSERT otherwise
}

// PGSink batches decision records and writes them to a single jsonb-backed
// table in Postgres.
type PGSink struct {
	config  PGConfig
	db      *sql.DB
	metrics *metrics.Metrics

	mu    sync.Mutex
	batch []signal.Record

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// tableNameRE matches valid unquoted Postgres identifiers.
var tableNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects table names that cannot be used as bare
// identifiers. The table name is interpolated into DDL/DML, so anything
// outside the identifier grammar is an injection risk.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("invalid table name: empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("invalid table name: exceeds 63 characters")
	}
	if !tableNameRE.MatchString(name) {
		return fmt.Errorf("invalid table name: %q", name)
	}
	return nil
}

// NewPGSinkFromEnv creates a PGSink from environment variables.
func NewPGSinkFromEnv() *PGSink {
	config := PGConfig{
		DSN:       os.Getenv("PG_DSN"),
		Table:     getEnvOr("PG_TABLE", "decisions_json"),
		BatchSize: getIntEnv("PG_BATCH_SIZE", 500),
		FlushMS:   getIntEnv("PG_FLUSH_MS", 500),
		UseCopy:   getBoolEnv("PG_COPY", true),
	}
	return &PGSink{
		config: config,
		batch:  make([]signal.Record, 0, config.BatchSize),
	}
}

// NewPGSink creates a PGSink with the default table and batching settings.
func NewPGSink(dsn string) *PGSink {
	config := PGConfig{
		DSN:       dsn,
		Table:     "decisions_json",
		BatchSize: 500,
		FlushMS:   500,
		UseCopy:   true,
	}
	return &PGSink{
		config: config,
		batch:  make([]signal.Record, 0, config.BatchSize),
	}
}

func (s *PGSink) Start(ctx context.Context) error {
	if err := validateTableName(s.config.Table); err != nil {
		return err
	}

	db, err := sql.Open("postgres", s.config.DSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	s.db = db

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		decision_id text PRIMARY KEY,
		ts timestamptz NOT NULL,
		verdict text NOT NULL,
		doc jsonb NOT NULL
	)`, s.config.Table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return fmt.Errorf("create table %s: %w", s.config.Table, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.flushLoop()

	return nil
}

// SetMetrics attaches the process metrics so the sink can report its batch
// queue depth. Call before Start; a nil receiver field just disables the
// gauge.
func (s *PGSink) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *PGSink) reportDepth(n int) {
	if s.metrics != nil {
		s.metrics.SetQueueDepth("postgres", float64(n))
	}
}

func (s *PGSink) Enqueue(rec signal.Record) error {
	s.mu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.config.BatchSize
	s.reportDepth(len(s.batch))
	s.mu.Unlock()

	if full {
		return s.Flush()
	}
	return nil
}

// Flush writes the pending batch. Safe to call with an empty batch.
func (s *PGSink) Flush() error {
	return s.flush(s.ctx)
}

// flush writes the pending batch using the given context. Close passes a
// fresh context here: by then s.ctx is already canceled, and the final
// drain must still reach the database.
func (s *PGSink) flush(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("pg sink not started")
	}
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.batch
	s.batch = make([]signal.Record, 0, s.config.BatchSize)
	s.reportDepth(0)
	s.mu.Unlock()
	if s.config.UseCopy {
		return s.flushCopy(ctx, pending)
	}
	return s.flushInsert(ctx, pending)
}

func (s *PGSink) flushCopy(ctx context.Context, records []signal.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin copy tx: %w", err)
	}
	stmt, err := tx.Prepare(pq.CopyIn(s.config.Table, "decision_id", "ts", "verdict", "doc"))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare copy: %w", err)
	}
	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := stmt.Exec(rec.DecisionID, rec.TS, rec.Verdict, string(doc)); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("copy record: %w", err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		tx.Rollback()
		return fmt.Errorf("finish copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("close copy: %w", err)
	}
	return tx.Commit()
}

func (s *PGSink) flushInsert(ctx context.Context, records []signal.Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (decision_id, ts, verdict, doc) VALUES ", s.config.Table)
	args := make([]any, 0, len(records)*4)
	for i, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, rec.DecisionID, rec.TS, rec.Verdict, string(doc))
	}
	sb.WriteString(" ON CONFLICT (decision_id) DO NOTHING")

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// flushLoop flushes pending records on a fixed interval so a quiet server
// still drains its batch.
func (s *PGSink) flushLoop() {
	defer close(s.done)
	ticker := time.NewTicker(time.Duration(s.config.FlushMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			_ = s.Flush()
		}
	}
}

// Close stops the flush loop, drains any buffered records and closes the
// database. The final drain runs on its own bounded context: s.ctx is
// canceled by this point and must not abort the flush.
func (s *PGSink) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	var flushErr error
	if s.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		flushErr = s.flush(ctx)
		if err := s.db.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	return flushErr
}

func (s *PGSink) Name() string { return "postgres" }

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
