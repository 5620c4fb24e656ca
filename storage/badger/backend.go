package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/carefind/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	path   string
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. If an existing directory cannot be
// opened because its contents are damaged, it is moved aside and a fresh, empty
// database is created in its place.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	logger := slog.Default().With("component", "badger")

	if inMemory {
		return openDB(badger.DefaultOptions("").WithInMemory(true), "", logger)
	}

	if err := ensureDir(filePath); err != nil {
		return nil, err
	}

	backend, err := openDB(badger.DefaultOptions(filePath), filePath, logger)
	if err == nil {
		return backend, nil
	}
	if isLockError(err) {
		return nil, err
	}

	quarantine := fmt.Sprintf("%s.corrupt-%d", strings.TrimSuffix(filePath, string(os.PathSeparator)), time.Now().Unix())
	logger.Warn("index directory unreadable, starting with an empty index",
		"path", filePath, "moved_to", quarantine, "err", err)
	if renameErr := os.Rename(filePath, quarantine); renameErr != nil {
		return nil, fmt.Errorf("open %s: %w (moving it aside failed: %v)", filePath, err, renameErr)
	}
	if err := ensureDir(filePath); err != nil {
		return nil, err
	}
	return openDB(badger.DefaultOptions(filePath), filePath, logger)
}

func openDB(opts badger.Options, path string, logger *slog.Logger) (*Backend, error) {
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		path:   path,
		logger: logger,
	}, nil
}

func ensureDir(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filePath, 0755); err != nil {
			return err
		}
		info, err = os.Stat(filePath)
		if err != nil {
			return err
		}
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// isLockError reports whether another process holds the database.
// Such a directory is healthy and must not be moved aside.
func isLockError(err error) bool {
	return strings.Contains(err.Error(), "directory lock")
}

// Path returns the database directory, or "" for in-memory databases.
func (b *Backend) Path() string {
	return b.path
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WithTransaction executes fn within a write transaction and commits it if fn
// returns nil.
func (b *Backend) WithTransaction(ctx context.Context, fn func(tx *badger.Txn) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ScanPrefix calls fn with the key and value of every entry under prefix, in key order.
// Iteration stops at the first error returned by fn or when ctx is done.
func (b *Backend) ScanPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if err := item.Value(func(val []byte) error {
				return fn(item.Key(), val)
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountPrefix returns the number of keys under prefix without reading values.
func (b *Backend) CountPrefix(ctx context.Context, prefix []byte) (int, error) {
	count := 0
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}
