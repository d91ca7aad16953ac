package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for unknown or expired session tokens.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 7 * 24 * time.Hour

// AnonymousTTL bounds sessions that only carry flashes for a visitor who is
// not logged in.
const AnonymousTTL = 15 * time.Minute

const keyPrefix = "session:"

// Store keeps sessions in BadgerDB. Entries carry a TTL so expired sessions
// disappear without a sweeper.
type Store struct {
	db      *badger.DB
	ttl     time.Duration
	anonTTL time.Duration
	log     logrus.FieldLogger
}

// Open opens the session store at dir. An empty dir keeps sessions in memory.
func Open(dir string, ttl time.Duration, logger logrus.FieldLogger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store at %s: %w", dir, err)
	}
	logger.WithField("dir", dir).Debug("Session store opened")

	return &Store{
		db:      db,
		ttl:     ttl,
		anonTTL: min(ttl, AnonymousTTL),
		log:     logger.WithField("component", "sessions"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TTL returns the lifetime applied to saved authenticated sessions.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// TTLFor returns the lifetime Save applies to sess.
func (s *Store) TTLFor(sess *Session) time.Duration {
	if sess.Authenticated() {
		return s.ttl
	}
	return s.anonTTL
}

func key(token string) []byte {
	return []byte(keyPrefix + token)
}

// New returns an anonymous session with a fresh token. It is not persisted
// until Save is called.
func (s *Store) New() *Session {
	return &Session{Token: uuid.NewString()}
}

// Get loads the session for token.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

// Save writes sess and resets its expiry to TTLFor(sess).
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.Token == "" {
		sess.Token = uuid.NewString()
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key(sess.Token), data).WithTTL(s.TTLFor(sess)))
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session for token. Deleting an unknown token is not an
// error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(token))
	}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Rotate moves sess to a new token, discarding the old one. It is used on
// login so a token issued to an anonymous visitor never becomes privileged.
func (s *Store) Rotate(ctx context.Context, sess *Session) error {
	old := sess.Token
	sess.Token = uuid.NewString()
	if err := s.Save(ctx, sess); err != nil {
		return err
	}
	return s.Delete(ctx, old)
}

// RunGC reclaims value log space until ctx is done.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := s.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				s.log.Debug("Session store GC completed")
			case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			default:
				s.log.WithError(err).Warn("Session store GC failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
