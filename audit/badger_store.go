package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "audit/"

// BadgerStore keeps records in badger under "audit/<ulid>" keys. The key
// is minted at append time under a lock, so prefix iteration returns
// records in append order.
type BadgerStore struct {
	mu  sync.Mutex
	db  *badger.DB
	ids *idGenerator
}

var _ Store = (*BadgerStore)(nil)

// OpenBadgerStore opens a badger database in dir. An empty dir keeps
// everything in memory.
func OpenBadgerStore(dir string, logger Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("audit: open badger: %w", err)
	}
	return &BadgerStore{db: db, ids: newIDGenerator()}, nil
}

func (s *BadgerStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return writeFailed(err)
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return writeFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(badgerKeyPrefix + s.ids.next(time.Now()))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return writeFailed(err)
}

func (s *BadgerStore) ReadAll(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec Record
			if err := json.Unmarshal(value, &rec); err != nil {
				return fmt.Errorf("audit: decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger adapts Logger to Badger's Logger interface.
type badgerLogger struct {
	logger Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
