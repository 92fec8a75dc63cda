package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// Postgres is the pgx-backed Callback implementation. Entities are stored
// as JSONB documents keyed by (colpath, uid); categories, contacts and
// locations live in their own lookup tables.
type Postgres struct {
	pool      *pgxpool.Pool
	principal string
	level     ConformanceLevel
}

// NewPostgres wires a Callback over a shared connection pool. The principal
// and conformance level are per-call-context in a full server; the
// conversion service binds them once from config.
func NewPostgres(pool *pgxpool.Pool, principal string, level ConformanceLevel) *Postgres {
	return &Postgres{pool: pool, principal: principal, level: level}
}

// HealthCheck verifies that the underlying database is reachable.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return p.pool.Ping(ctx)
}

func (p *Postgres) GetEvents(ctx context.Context, colPath, uid string) ([]*domain.Entity, error) {
	defer observeDB(ctx, "db.get_events")()

	const q = `SELECT data FROM events WHERE colpath=$1 AND uid=$2`
	rows, err := p.pool.Query(ctx, q, colPath, uid)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*domain.Entity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e domain.Entity
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", uid, err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// PutEvent upserts a master entity document.
func (p *Postgres) PutEvent(ctx context.Context, e *domain.Entity) error {
	defer observeDB(ctx, "db.put_event")()

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.UID, err)
	}
	const q = `INSERT INTO events (colpath, uid, data, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (colpath, uid) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()`
	if _, err := p.pool.Exec(ctx, q, e.ColPath, e.UID, raw); err != nil {
		return fmt.Errorf("upsert event %s: %w", e.UID, err)
	}
	return nil
}

func (p *Postgres) FindCategory(ctx context.Context, word, language string) (*domain.Category, error) {
	defer observeDB(ctx, "db.find_category")()

	const q = `SELECT word, language, href FROM categories WHERE word=$1 AND language=$2`
	var c domain.Category
	err := p.pool.QueryRow(ctx, q, word, language).Scan(&c.Word, &c.Language, &c.Href)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category %s: %w", word, err)
	}
	return &c, nil
}

func (p *Postgres) AddCategory(ctx context.Context, cat *domain.Category) error {
	defer observeDB(ctx, "db.add_category")()

	if cat.Href == "" {
		cat.Href = "/categories/" + strings.ToLower(cat.Word)
	}
	const q = `INSERT INTO categories (word, language, href) VALUES ($1, $2, $3)
ON CONFLICT (word, language) DO NOTHING`
	if _, err := p.pool.Exec(ctx, q, cat.Word, cat.Language, cat.Href); err != nil {
		return fmt.Errorf("insert category %s: %w", cat.Word, err)
	}
	return nil
}

func (p *Postgres) FindContact(ctx context.Context, name string) (*domain.Contact, error) {
	defer observeDB(ctx, "db.find_contact")()

	const q = `SELECT name, language, href FROM contacts WHERE name=$1`
	var c domain.Contact
	err := p.pool.QueryRow(ctx, q, name).Scan(&c.Name, &c.Language, &c.Href)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query contact %s: %w", name, err)
	}
	return &c, nil
}

func (p *Postgres) AddContact(ctx context.Context, c *domain.Contact) error {
	defer observeDB(ctx, "db.add_contact")()

	if c.Href == "" {
		c.Href = "/contacts/" + strings.ToLower(strings.ReplaceAll(c.Name, " ", "-"))
	}
	const q = `INSERT INTO contacts (name, language, href) VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING`
	if _, err := p.pool.Exec(ctx, q, c.Name, c.Language, c.Href); err != nil {
		return fmt.Errorf("insert contact %s: %w", c.Name, err)
	}
	return nil
}

func (p *Postgres) FetchLocationByCombined(ctx context.Context, combined string) (*domain.Location, error) {
	defer observeDB(ctx, "db.fetch_location_combined")()
	return p.queryLocation(ctx, `SELECT address, combined, href FROM locations WHERE combined=$1`, combined)
}

func (p *Postgres) FetchLocationByKey(ctx context.Context, name, value string) (*domain.Location, error) {
	defer observeDB(ctx, "db.fetch_location_key")()

	// Only the address key is indexed; other keys are a miss, not an
	// error, so the caller can fall through to its next lookup.
	if name != "address" {
		return nil, ErrNotFound
	}
	return p.queryLocation(ctx, `SELECT address, combined, href FROM locations WHERE address=$1`, value)
}

func (p *Postgres) FindLocation(ctx context.Context, address string) (*domain.Location, error) {
	defer observeDB(ctx, "db.find_location")()
	return p.queryLocation(ctx, `SELECT address, combined, href FROM locations WHERE address=$1`, address)
}

func (p *Postgres) queryLocation(ctx context.Context, q, arg string) (*domain.Location, error) {
	var l domain.Location
	err := p.pool.QueryRow(ctx, q, arg).Scan(&l.Address, &l.Combined, &l.Href)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query location: %w", err)
	}
	return &l, nil
}

func (p *Postgres) AddLocation(ctx context.Context, loc *domain.Location) error {
	defer observeDB(ctx, "db.add_location")()

	if loc.Href == "" {
		loc.Href = "/locations/" + strings.ToLower(strings.ReplaceAll(loc.Address, " ", "-"))
	}
	const q = `INSERT INTO locations (address, combined, href) VALUES ($1, $2, $3)
ON CONFLICT (address) DO NOTHING`
	if _, err := p.pool.Exec(ctx, q, loc.Address, loc.Combined, loc.Href); err != nil {
		return fmt.Errorf("insert location %s: %w", loc.Address, err)
	}
	return nil
}

func (p *Postgres) CaladdrFor(principal string) string {
	if strings.Contains(principal, ":") {
		return principal
	}
	return "mailto:" + principal
}

func (p *Postgres) CurrentPrincipal() string {
	return p.principal
}

func (p *Postgres) Conformance() ConformanceLevel {
	return p.level
}
