package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps session state in a SQLite table. The cookie only carries a
// signed session id, so state size is not bound by cookie limits.
type SQLiteBackend struct {
	db     *sql.DB
	secret []byte
	opts   CookieOptions
}

func OpenSQLite(ctx context.Context, path string, secret []byte, opts CookieOptions) (*SQLiteBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("session: sqlite path is empty")
	}
	if len(secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	if err := migrateSessions(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db, secret: secret, opts: opts.withDefaults()}, nil
}

// sqliteDSN builds a file: URI for path. Pragmas go in the query so every pooled
// connection gets them; the path is escaped so '?' and '#' stay part of it.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: q.Encode()}
	return u.String()
}

func migrateSessions(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			data_json TEXT NOT NULL,
			expires_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions(expires_at_unixms)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("session: migrate: %w", err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(b.opts.Name)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return New(), nil
	}
	sp, err := verifyToken(b.secret, c.Value, typID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var raw string
	err = b.db.QueryRowContext(ctx,
		`SELECT data_json FROM sessions WHERE id = ? AND expires_at_unixms > ?`,
		sp.Sub, time.Now().UTC().UnixMilli(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		// Pruned or never saved; keep the id so the next save reuses it.
		s := New()
		s.ID = sp.Sub
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	s := New()
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.Lists == nil {
		s.Lists = New().Lists
	}
	s.ID = sp.Sub
	return s, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	now := time.Now().UTC()
	exp := now.Add(b.opts.MaxAge)
	if _, err := b.db.ExecContext(ctx,
		`INSERT INTO sessions(id, data_json, expires_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json,
		   expires_at_unixms = excluded.expires_at_unixms,
		   updated_at_unixms = excluded.updated_at_unixms`,
		s.ID, string(data), exp.UnixMilli(), now.UnixMilli(),
	); err != nil {
		return err
	}

	token, err := signToken(b.secret, signedPayload{Typ: typID, Sub: s.ID, Exp: exp.Unix()})
	if err != nil {
		return err
	}
	http.SetCookie(w, b.opts.cookie(token))
	return nil
}

// Prune deletes expired sessions and reports how many were removed.
func (b *SQLiteBackend) Prune(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at_unixms <= ?`, time.Now().UTC().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunPruner calls Prune every interval until ctx is done. onErr may be nil.
func (b *SQLiteBackend) RunPruner(ctx context.Context, interval time.Duration, onErr func(error)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := b.Prune(ctx); err != nil && onErr != nil && ctx.Err() == nil {
				onErr(err)
			}
		}
	}
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
