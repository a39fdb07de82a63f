// Package cache stores compiled output in a SQLite database.
//
// Entries are keyed by a digest of the tree document and the
// configuration fingerprint, so a changed convention or naming setting
// never returns stale code. Executable code is stored as canonical CBOR.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	stderrors "errors"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/exec"
)

const schema = `CREATE TABLE IF NOT EXISTS compiled (
	key TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	code BLOB NOT NULL,
	locals BLOB,
	created INTEGER NOT NULL
)`

// Entry is one cached compile.
type Entry struct {
	Created time.Time
	Source  string
	Code    exec.Code
	Locals  []string
}

// Store is a SQLite-backed compile cache. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	path   string
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the cache database at path. ":memory:" gives a
// private in-memory cache.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "opening database")
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "setting busy timeout")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "creating table")
	}
	s.db = db
	return s, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key derives the cache key for a tree document compiled under the
// configuration with the given fingerprint.
func Key(doc []byte, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(doc)
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up key. The boolean is false when there is no entry.
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.NotInitialized(errors.PhaseCache, "store")
	}

	var (
		source  string
		code    []byte
		locals  []byte
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT source, code, locals, created FROM compiled WHERE key = ?", key,
	).Scan(&source, &code, &locals, &created)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("cache miss", zap.String("key", key))
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.PhaseCache, errors.KindDecode, err, "querying entry")
	}

	e := &Entry{Source: source, Created: time.Unix(0, created).UTC()}
	if e.Code, err = exec.UnmarshalCBOR(code); err != nil {
		return nil, false, errors.New(errors.PhaseCache, errors.KindInvalidData).
			Path(key).
			Cause(err).
			Detail("corrupt code column").
			Build()
	}
	if len(locals) > 0 {
		if err := cbor.Unmarshal(locals, &e.Locals); err != nil {
			return nil, false, errors.New(errors.PhaseCache, errors.KindInvalidData).
				Path(key).
				Cause(err).
				Detail("corrupt locals column").
				Build()
		}
	}
	s.logger.Debug("cache hit", zap.String("key", key), zap.Int("instructions", exec.Count(e.Code)))
	return e, true, nil
}

// Put stores e under key, replacing any previous entry. A zero Created
// time is set to now.
func (s *Store) Put(ctx context.Context, key string, e *Entry) error {
	if s == nil || s.db == nil {
		return errors.NotInitialized(errors.PhaseCache, "store")
	}
	if e == nil {
		return errors.InvalidInput(errors.PhaseCache, "nil entry")
	}

	code, err := exec.MarshalCBOR(e.Code)
	if err != nil {
		return err
	}
	var locals []byte
	if len(e.Locals) > 0 {
		if locals, err = cbor.Marshal(e.Locals); err != nil {
			return errors.Wrap(errors.PhaseCache, errors.KindEncode, err, "encoding locals")
		}
	}
	created := e.Created
	if created.IsZero() {
		created = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO compiled (key, source, code, locals, created) VALUES (?, ?, ?, ?, ?)",
		key, e.Source, code, locals, created.UnixNano(),
	)
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindEncode, err, "saving entry")
	}
	s.logger.Debug("cache store", zap.String("key", key), zap.Int("code_bytes", len(code)))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return errors.NotInitialized(errors.PhaseCache, "store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM compiled WHERE key = ?", key); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindEncode, err, "deleting entry")
	}
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.NotInitialized(errors.PhaseCache, "store")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM compiled").Scan(&n); err != nil {
		return 0, errors.Wrap(errors.PhaseCache, errors.KindDecode, err, "counting entries")
	}
	return n, nil
}
