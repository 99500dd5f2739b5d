package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v5"
	"github.com/vytor/learnprogress/internal/logger"
)

const documentsTable = "documents"

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type sqliteStore struct {
	db             *sql.DB
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	observer       Observer
}

// Option configures the sqlite store.
type Option func(*sqliteStore)

// WithMaxAttempts bounds how many times RunTransaction runs its body.
func WithMaxAttempts(n int) Option {
	return func(s *sqliteStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackoff sets the first and the largest delay between conflicting attempts.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(s *sqliteStore) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if maxDelay >= s.initialBackoff {
			s.maxBackoff = maxDelay
		}
	}
}

// WithObserver reports transaction events to o.
func WithObserver(o Observer) Option {
	return func(s *sqliteStore) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewSQLiteStore returns a Store keeping documents as JSON rows in the
// documents table. Every row carries a version bumped on each write.
func NewSQLiteStore(db *sql.DB, opts ...Option) Store {
	s := &sqliteStore{
		db:             db,
		maxAttempts:    5,
		initialBackoff: 5 * time.Millisecond,
		maxBackoff:     200 * time.Millisecond,
		observer:       noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqliteStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("docstore")
	log.Debug("getting document: %s/%s", collection, id)

	snap, err := readSnapshot(ctx, s.db, collection, id)
	if err != nil {
		log.Error("failed to get document %s/%s: %v", collection, id, err)
		return nil, err
	}
	return snap, nil
}

func readSnapshot(ctx context.Context, q queryRower, collection, id string) (*Snapshot, error) {
	query, args, err := sqlBuilder.
		Select("data", "version").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var raw string
	var version int64
	err = q.QueryRowContext(ctx, query, args...).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return &Snapshot{Collection: collection, ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	data, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &Snapshot{Collection: collection, ID: id, Data: data, Version: version, Exists: true}, nil
}

func decodeDocument(raw string) (Document, error) {
	var d Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = Document{}
	}
	return d, nil
}

func (s *sqliteStore) Set(ctx context.Context, collection, id string, data Document, opts ...SetOption) error {
	log := logger.FromContext(ctx).WithPrefix("docstore")
	o := resolveSetOptions(opts)
	log.Debug("setting document: %s/%s merge=%t", collection, id, o.merge)

	w := pendingWrite{ref: docRef{collection, id}, data: Clone(data), merge: o.merge}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return applyWrite(ctx, tx, w, false)
	})
	if err != nil {
		log.Error("failed to set document %s/%s: %v", collection, id, err)
		return err
	}
	return nil
}

func (s *sqliteStore) Query(ctx context.Context, collection, field string, value any) ([]*Snapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("docstore")
	log.Debug("querying %s where %s = %v", collection, field, value)

	if field == "" || strings.ContainsAny(field, `"$.[]`) {
		return nil, fmt.Errorf("query %s: invalid field name %q", collection, field)
	}

	query, args, err := sqlBuilder.
		Select("id", "data", "version").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection}).
		Where(squirrel.Expr(`json_extract(data, ?) = ?`, `$."`+field+`"`, value)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query %s: %v", collection, err)
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var id, raw string
		var version int64
		if err := rows.Scan(&id, &raw, &version); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		data, err := decodeDocument(raw)
		if err != nil {
			log.Warn("skipping undecodable document %s/%s: %v", collection, id, err)
			continue
		}
		out = append(out, &Snapshot{Collection: collection, ID: id, Data: data, Version: version, Exists: true})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	log.Debug("query matched %d documents", len(out))
	return out, nil
}

func (s *sqliteStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	log := logger.FromContext(ctx).WithPrefix("docstore")

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		s.observer.TxAttempt()

		t := newTransaction(s)
		if err := fn(ctx, t); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if err := s.commit(ctx, t); err != nil {
			if errors.Is(err, ErrConflict) {
				s.observer.TxConflict()
				log.Debug("transaction conflict on attempt %d/%d", attempt, s.maxAttempts)
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		s.observer.TxCommit()
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(s.maxAttempts)),
	)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			log.Warn("transaction abandoned after %d conflicting attempts", attempt)
		}
		return err
	}
	if attempt > 1 {
		log.Debug("transaction committed after %d attempts", attempt)
	}
	return nil
}

func (s *sqliteStore) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff
	return b
}

func (s *sqliteStore) commit(ctx context.Context, t *transaction) error {
	if len(t.writes) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for ref, read := range t.reads {
			if t.written[ref] {
				continue
			}
			cur, err := readSnapshot(ctx, tx, ref.collection, ref.id)
			if err != nil {
				return err
			}
			if cur.Exists != read.Exists || cur.Version != read.Version {
				return ErrConflict
			}
		}

		checked := make(map[docRef]bool, len(t.writes))
		for _, w := range t.writes {
			verify := w.fromRead && !checked[w.ref]
			checked[w.ref] = true
			if err := applyWrite(ctx, tx, w, verify); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *sqliteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("docstore")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	return nil
}

// applyWrite writes w inside tx. With verify set, the stored version must
// still be the one the transaction read.
func applyWrite(ctx context.Context, tx *sql.Tx, w pendingWrite, verify bool) error {
	cur, err := readSnapshot(ctx, tx, w.ref.collection, w.ref.id)
	if err != nil {
		return err
	}
	if verify && (cur.Exists != w.readExists || cur.Version != w.readVersion) {
		return ErrConflict
	}

	next := w.data
	if w.merge && cur.Exists {
		next = mergeInto(cur.Data, w.data)
	}
	if next == nil {
		next = Document{}
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", w.ref.collection, w.ref.id, err)
	}

	if !cur.Exists {
		query, args, err := sqlBuilder.
			Insert(documentsTable).
			Columns("collection", "id", "data", "version").
			Values(w.ref.collection, w.ref.id, string(raw), 1).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s/%s: %w", w.ref.collection, w.ref.id, err)
		}
		return nil
	}

	query, args, err := sqlBuilder.
		Update(documentsTable).
		Set("data", string(raw)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"collection": w.ref.collection, "id": w.ref.id, "version": cur.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", w.ref.collection, w.ref.id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", w.ref.collection, w.ref.id, err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
