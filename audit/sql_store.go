package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// recordModel maps the audit_records table. ID holds the bytes of a ULID
// minted at append time, so ordering by id follows append order.
type recordModel struct {
	bun.BaseModel `bun:"table:audit_records,alias:ar"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	RecordID      string    `bun:"record_id,notnull,unique"`
	ExchangeID    string    `bun:"exchange_id,notnull"`
	OccurredAt    time.Time `bun:"occurred_at,notnull"`
	Direction     string    `bun:"direction,notnull"`
	Level         string    `bun:"level,notnull"`
	RemoteAddress string    `bun:"remote_address"`
	LocalAddress  string    `bun:"local_address"`
	Method        string    `bun:"method"`
	Path          string    `bun:"path"`
	StatusCode    int       `bun:"status_code"`
	Headers       string    `bun:"headers"`
	Body          []byte    `bun:"body"`
	BodyTruncated bool      `bun:"body_truncated"`
}

func toModel(rec Record) (*recordModel, error) {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return nil, err
	}
	return &recordModel{
		RecordID:      rec.ID,
		ExchangeID:    rec.ExchangeID,
		OccurredAt:    rec.Timestamp.UTC(),
		Direction:     string(rec.Direction),
		Level:         rec.Level,
		RemoteAddress: rec.RemoteAddress,
		LocalAddress:  rec.LocalAddress,
		Method:        rec.Method,
		Path:          rec.Path,
		StatusCode:    rec.StatusCode,
		Headers:       string(headers),
		Body:          rec.Body,
		BodyTruncated: rec.BodyTruncated,
	}, nil
}

func (m *recordModel) record() (Record, error) {
	rec := Record{
		ID:            m.RecordID,
		ExchangeID:    m.ExchangeID,
		Timestamp:     m.OccurredAt.UTC(),
		Direction:     Direction(m.Direction),
		Level:         m.Level,
		RemoteAddress: m.RemoteAddress,
		LocalAddress:  m.LocalAddress,
		Method:        m.Method,
		Path:          m.Path,
		StatusCode:    m.StatusCode,
		Body:          m.Body,
		BodyTruncated: m.BodyTruncated,
	}
	if m.Headers != "" && m.Headers != "null" {
		if err := json.Unmarshal([]byte(m.Headers), &rec.Headers); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// SQLStore keeps records in a SQL table through a bun repository. Records
// are read back in append order.
type SQLStore struct {
	mu   sync.Mutex
	db   *bun.DB
	repo repository.Repository[*recordModel]
	ids  *idGenerator
}

func newRecordRepository(db *bun.DB) repository.Repository[*recordModel] {
	return repository.NewRepository[*recordModel](db, repository.ModelHandlers[*recordModel]{
		NewRecord: func() *recordModel { return &recordModel{} },
		GetID: func(m *recordModel) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *recordModel, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "record_id"
		},
	})
}

func orderByID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("id ASC")
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore uses db and creates the audit_records table when missing.
func NewSQLStore(ctx context.Context, db *bun.DB) (*SQLStore, error) {
	_, err := db.NewCreateTable().
		Model((*recordModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: create audit_records: %w", err)
	}
	return &SQLStore{db: db, repo: newRecordRepository(db), ids: newIDGenerator()}, nil
}

// OpenSQLiteStore opens a sqlite database at dsn. An empty dsn opens a
// private in-memory database.
func OpenSQLiteStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	// one connection: sqlite has a single writer and an in-memory database
	// lives only as long as its connection
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// DB exposes the underlying bun handle.
func (s *SQLStore) DB() *bun.DB {
	return s.db
}

func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	m, err := toModel(rec)
	if err != nil {
		return writeFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.UUID(s.ids.mint(time.Now()))
	if _, err := s.repo.Create(ctx, m); err != nil {
		return writeFailed(err)
	}
	return nil
}

func (s *SQLStore) ReadAll(ctx context.Context) ([]Record, error) {
	models, _, err := s.repo.List(ctx, orderByID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(models))
	for _, m := range models {
		rec, err := m.record()
		if err != nil {
			return nil, fmt.Errorf("audit: decode record %s: %w", m.RecordID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
