package cookiestore

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"miso/internal/platform/clock"
	"miso/internal/platform/logging"
)

// Jar is an http.CookieJar that mirrors every cookie it accepts into sqlite
// so the backend session survives process restarts.
type Jar struct {
	mu    sync.Mutex
	jar   *cookiejar.Jar
	db    *sql.DB
	clock clock.Clock
	log   zerolog.Logger
}

func New(ctx context.Context, db *sql.DB, clk clock.Clock) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	j := &Jar{jar: inner, db: db, clock: clk, log: logging.Module("cookiestore")}
	if err := j.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS cookies (
  origin TEXT NOT NULL,
  name TEXT NOT NULL,
  path TEXT NOT NULL,
  domain TEXT NOT NULL,
  value TEXT NOT NULL,
  expires_at TEXT,
  secure INTEGER NOT NULL,
  http_only INTEGER NOT NULL,
  PRIMARY KEY (origin, name, path)
);
`
	if _, err := j.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create cookies table: %w", err)
	}
	return nil
}

func (j *Jar) load(ctx context.Context) error {
	rows, err := j.db.QueryContext(ctx, `SELECT origin, name, path, domain, value, expires_at, secure, http_only FROM cookies`)
	if err != nil {
		return fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	now := j.clock.Now()
	byOrigin := map[string][]*http.Cookie{}
	for rows.Next() {
		var origin, name, path, domain, value string
		var expires sql.NullString
		var secure, httpOnly bool
		if err := rows.Scan(&origin, &name, &path, &domain, &value, &expires, &secure, &httpOnly); err != nil {
			return fmt.Errorf("scan cookie: %w", err)
		}
		c := &http.Cookie{Name: name, Value: value, Path: path, Domain: domain, Secure: secure, HttpOnly: httpOnly}
		if expires.Valid && expires.String != "" {
			at, err := time.Parse(time.RFC3339, expires.String)
			if err != nil || !at.After(now) {
				continue
			}
			c.Expires = at
		}
		byOrigin[origin] = append(byOrigin[origin], c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cookies: %w", err)
	}
	for origin, cookies := range byOrigin {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, cookies)
	}
	return nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)

	origin := originOf(u)
	now := j.clock.Now()
	for _, c := range cookies {
		if err := j.persist(origin, cookiePath(u, c), c, now); err != nil {
			j.log.Warn().Err(err).Str("cookie", c.Name).Msg("persist cookie")
		}
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Clear forgets every cookie, in memory and on disk.
func (j *Jar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("reset cookie jar: %w", err)
	}
	j.jar = inner
	if _, err := j.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func (j *Jar) persist(origin, path string, c *http.Cookie, now time.Time) error {
	var expires any
	switch {
	case c.MaxAge < 0:
		return j.remove(origin, c.Name, path)
	case c.MaxAge > 0:
		expires = now.Add(time.Duration(c.MaxAge) * time.Second).UTC().Format(time.RFC3339)
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return j.remove(origin, c.Name, path)
		}
		expires = c.Expires.UTC().Format(time.RFC3339)
	}

	const stmt = `
INSERT INTO cookies (origin, name, path, domain, value, expires_at, secure, http_only)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(origin, name, path) DO UPDATE SET
  domain=excluded.domain,
  value=excluded.value,
  expires_at=excluded.expires_at,
  secure=excluded.secure,
  http_only=excluded.http_only;
`
	if _, err := j.db.Exec(stmt, origin, c.Name, path, c.Domain, c.Value, expires, c.Secure, c.HttpOnly); err != nil {
		return fmt.Errorf("upsert cookie: %w", err)
	}
	return nil
}

func (j *Jar) remove(origin, name, path string) error {
	if _, err := j.db.Exec(`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?`, origin, name, path); err != nil {
		return fmt.Errorf("delete cookie: %w", err)
	}
	return nil
}

// cookiePath is the path the inner jar scopes c to: its own Path when
// absolute, otherwise the directory of the request path.
func cookiePath(u *url.URL, c *http.Cookie) string {
	if strings.HasPrefix(c.Path, "/") {
		return c.Path
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func originOf(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}
