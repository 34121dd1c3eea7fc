package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/directory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The pool is limited to one connection so every write transaction is
// serialized through a single writer.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS facilities (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	dedup_key         TEXT NOT NULL UNIQUE,
	address           TEXT NOT NULL DEFAULT '',
	region            TEXT NOT NULL,
	sub_region        TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL,
	lat               REAL,
	lng               REAL,
	phone             TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	service_types     TEXT NOT NULL DEFAULT '[]',
	certifications    TEXT NOT NULL DEFAULT '[]',
	payment_methods   TEXT NOT NULL DEFAULT '[]',
	description       TEXT,
	enrichment_status TEXT NOT NULL DEFAULT 'missing',
	discovered_at     DATETIME NOT NULL,
	source_query      TEXT NOT NULL DEFAULT '',
	provider_id       TEXT NOT NULL DEFAULT '',
	rating            REAL,
	review_count      INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger (
	stage      TEXT NOT NULL,
	key        TEXT NOT NULL,
	status     TEXT NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (stage, key)
);

CREATE TABLE IF NOT EXISTS enrichment_attempts (
	facility_id         TEXT PRIMARY KEY REFERENCES facilities(id),
	transient_attempts  INTEGER NOT NULL DEFAULT 0,
	validation_attempts INTEGER NOT NULL DEFAULT 0,
	last_error          TEXT NOT NULL DEFAULT '',
	last_attempt_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS slug_assignments (
	dedup_key   TEXT PRIMARY KEY,
	slug        TEXT NOT NULL UNIQUE,
	assigned_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facilities_region ON facilities(region);
CREATE INDEX IF NOT EXISTS idx_facilities_status ON facilities(enrichment_status);
CREATE INDEX IF NOT EXISTS idx_facilities_discovered ON facilities(discovered_at, id);
CREATE INDEX IF NOT EXISTS idx_ledger_stage_status ON ledger(stage, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var facilityColumns = []string{
	"id", "name", "dedup_key", "address", "region", "sub_region", "city",
	"lat", "lng", "phone", "website",
	"service_types", "certifications", "payment_methods",
	"description", "enrichment_status",
	"discovered_at", "source_query", "provider_id",
	"rating", "review_count", "created_at", "updated_at",
}

// UpsertFacility inserts f when its dedup key is new, otherwise merges it
// into the existing row by filling empty fields and unioning tags. The read,
// merge, and write happen in one transaction. On return f.ID holds the
// canonical record's ID.
func (s *SQLiteStore) UpsertFacility(ctx context.Context, f *model.Facility) (UpsertOutcome, error) {
	if f.DedupKey == "" {
		return "", eris.New("sqlite: upsert facility: empty dedup key")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := sq.Select(facilityColumns...).From("facilities").
		Where(sq.Eq{"dedup_key": f.DedupKey}).ToSql()
	if err != nil {
		return "", eris.Wrap(err, "sqlite: build upsert lookup")
	}
	existing, err := scanFacility(tx.QueryRowContext(ctx, query, args...))
	if err != nil && err != sql.ErrNoRows {
		return "", err
	}

	ts := now()
	if existing == nil {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		f.EnrichmentStatus = model.EnrichmentMissing
		f.Description = nil
		if f.Source.DiscoveredAt.IsZero() {
			f.Source.DiscoveredAt = ts
		}
		f.CreatedAt, f.UpdatedAt = ts, ts
		if err := insertFacility(ctx, tx, f); err != nil {
			return "", err
		}
		if err := tx.Commit(); err != nil {
			return "", eris.Wrap(err, "sqlite: commit insert")
		}
		return Inserted, nil
	}

	f.ID = existing.ID
	if !existing.MergeFrom(f) {
		return Unchanged, nil
	}
	existing.UpdatedAt = ts
	if err := updateMerged(ctx, tx, existing); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit merge")
	}
	return Merged, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFacility(ctx context.Context, db execer, f *model.Facility) error {
	services, certs, payments, err := marshalTags(f)
	if err != nil {
		return err
	}
	query, args, err := sq.Insert("facilities").Columns(facilityColumns...).Values(
		f.ID, f.Name, f.DedupKey, f.Address, f.Region, f.SubRegion, f.City,
		nullFloat(f.Lat), nullFloat(f.Lng), f.Phone, f.Website,
		services, certs, payments,
		nullString(f.Description), string(f.EnrichmentStatus),
		f.Source.DiscoveredAt, f.Source.Query, f.Source.ProviderID,
		nullFloat(f.Rating), f.ReviewCount, f.CreatedAt, f.UpdatedAt,
	).ToSql()
	if err != nil {
		return eris.Wrap(err, "sqlite: build insert facility")
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return eris.Wrapf(err, "sqlite: insert facility %s", f.DedupKey)
	}
	return nil
}

// updateMerged writes back only the columns MergeFrom may change.
func updateMerged(ctx context.Context, db execer, f *model.Facility) error {
	services, certs, payments, err := marshalTags(f)
	if err != nil {
		return err
	}
	query, args, err := sq.Update("facilities").SetMap(map[string]any{
		"address":         f.Address,
		"sub_region":      f.SubRegion,
		"phone":           f.Phone,
		"website":         f.Website,
		"lat":             nullFloat(f.Lat),
		"lng":             nullFloat(f.Lng),
		"provider_id":     f.Source.ProviderID,
		"service_types":   services,
		"certifications":  certs,
		"payment_methods": payments,
		"updated_at":      f.UpdatedAt,
	}).Where(sq.Eq{"id": f.ID}).ToSql()
	if err != nil {
		return eris.Wrap(err, "sqlite: build merge update")
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: merge facility %s", f.ID)
	}
	return checkRowsAffected(res, "facility", f.ID)
}

func (s *SQLiteStore) GetFacility(ctx context.Context, id string) (*model.Facility, error) {
	query, args, err := sq.Select(facilityColumns...).From("facilities").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build get facility")
	}
	f, err := scanFacility(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("facility not found: %s", id)
	}
	return f, err
}

// GetFacilityByKey returns the facility holding dedupKey, or nil if none does.
func (s *SQLiteStore) GetFacilityByKey(ctx context.Context, dedupKey string) (*model.Facility, error) {
	query, args, err := sq.Select(facilityColumns...).From("facilities").
		Where(sq.Eq{"dedup_key": dedupKey}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build get facility by key")
	}
	f, err := scanFacility(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// ListFacilities returns facilities matching filter in discovery order
// (discovered_at, then ID).
func (s *SQLiteStore) ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error) {
	b := sq.Select(facilityColumns...).From("facilities")
	if filter.Region != "" {
		b = b.Where(sq.Eq{"region": filter.Region})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		b = b.Where(sq.Eq{"enrichment_status": statuses})
	}
	if len(filter.IDs) > 0 {
		b = b.Where(sq.Eq{"id": filter.IDs})
	}
	b = b.OrderBy("discovered_at", "id")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list facilities")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list facilities")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list facilities iterate")
}

func (s *SQLiteStore) CountFacilities(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count facilities")
}

func (s *SQLiteStore) SetEnrichmentStatus(ctx context.Context, id string, status model.EnrichmentStatus) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid enrichment status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
		string(status), now(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set enrichment status %s", id)
	}
	return checkRowsAffected(res, "facility", id)
}

// AcceptDescription stores generated content and marks the record accepted.
func (s *SQLiteStore) AcceptDescription(ctx context.Context, id, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET description = ?, enrichment_status = ?, updated_at = ? WHERE id = ?`,
		description, string(model.EnrichmentAccepted), now(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: accept description %s", id)
	}
	return checkRowsAffected(res, "facility", id)
}

func (s *SQLiteStore) UpdateRating(ctx context.Context, id string, rating *float64, reviewCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET rating = ?, review_count = ? WHERE id = ?`,
		nullFloat(rating), reviewCount, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update rating %s", id)
	}
	return checkRowsAffected(res, "facility", id)
}

// RecentDescriptions returns up to limit accepted descriptions, newest first.
func (s *SQLiteStore) RecentDescriptions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT description FROM facilities
		 WHERE enrichment_status = ? AND description IS NOT NULL
		 ORDER BY updated_at DESC, id DESC LIMIT ?`,
		string(model.EnrichmentAccepted), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent descriptions")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan description")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent descriptions iterate")
}

// --- Ledger ---

func (s *SQLiteStore) GetLedger(ctx context.Context, stage, key string) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT stage, key, status, attempts, last_error, updated_at FROM ledger WHERE stage = ? AND key = ?`,
		stage, key,
	).Scan(&e.Stage, &e.Key, &e.Status, &e.Attempts, &e.LastError, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get ledger %s/%s", stage, key)
	}
	return &e, nil
}

// LedgerKeys returns the set of keys in stage with the given status.
func (s *SQLiteStore) LedgerKeys(ctx context.Context, stage string, status model.LedgerStatus) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM ledger WHERE stage = ? AND status = ?`, stage, string(status),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: ledger keys %s", stage)
	}
	defer rows.Close() //nolint:errcheck

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ledger key")
		}
		keys[k] = true
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: ledger keys iterate")
}

// PutLedger writes entry, replacing any previous row for (stage, key).
func (s *SQLiteStore) PutLedger(ctx context.Context, e model.LedgerEntry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger (stage, key, status, attempts, last_error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stage, key) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at`,
		e.Stage, e.Key, string(e.Status), e.Attempts, e.LastError, e.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: put ledger %s/%s", e.Stage, e.Key)
}

// ledgerResetBatch bounds the keys bound into one DELETE.
const ledgerResetBatch = 500

// ResetLedger clears ledger entries for a stage. With keys, only those
// entries are removed.
func (s *SQLiteStore) ResetLedger(ctx context.Context, stage string, keys ...string) error {
	if len(keys) == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM ledger WHERE stage = ?`, stage)
		return eris.Wrapf(err, "sqlite: reset ledger %s", stage)
	}
	for start := 0; start < len(keys); start += ledgerResetBatch {
		end := min(start+ledgerResetBatch, len(keys))
		query, args, err := sq.Delete("ledger").
			Where(sq.Eq{"stage": stage, "key": keys[start:end]}).ToSql()
		if err != nil {
			return eris.Wrap(err, "sqlite: build reset ledger query")
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return eris.Wrapf(err, "sqlite: reset ledger %s", stage)
		}
	}
	return nil
}

// --- Enrichment attempts ---

// GetAttempt returns the attempt record for a facility, or nil if it has
// never been attempted.
func (s *SQLiteStore) GetAttempt(ctx context.Context, facilityID string) (*model.EnrichmentAttempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx,
		`SELECT facility_id, transient_attempts, validation_attempts, last_error, last_attempt_at
		 FROM enrichment_attempts WHERE facility_id = ?`, facilityID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) ListAttempts(ctx context.Context) (map[string]model.EnrichmentAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT facility_id, transient_attempts, validation_attempts, last_error, last_attempt_at
		 FROM enrichment_attempts`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attempts")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]model.EnrichmentAttempt)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out[a.FacilityID] = *a
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list attempts iterate")
}

// RecordAttempt persists the attempt counters and the facility's resulting
// status in one transaction.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, a model.EnrichmentAttempt, status model.EnrichmentStatus) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid enrichment status %q", status)
	}
	if a.LastAttemptAt.IsZero() {
		a.LastAttemptAt = now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin record attempt")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO enrichment_attempts (facility_id, transient_attempts, validation_attempts, last_error, last_attempt_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (facility_id) DO UPDATE SET
			transient_attempts = excluded.transient_attempts,
			validation_attempts = excluded.validation_attempts,
			last_error = excluded.last_error,
			last_attempt_at = excluded.last_attempt_at`,
		a.FacilityID, a.TransientAttempts, a.ValidationAttempts, a.LastError, a.LastAttemptAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert attempt %s", a.FacilityID)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE facilities SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
		string(status), now(), a.FacilityID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set status for attempt %s", a.FacilityID)
	}
	if err := checkRowsAffected(res, "facility", a.FacilityID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit record attempt")
}

// --- Slug assignments ---

// SlugAssignments returns every persisted dedup key → slug mapping.
func (s *SQLiteStore) SlugAssignments(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dedup_key, slug FROM slug_assignments`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: slug assignments")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]string)
	for rows.Next() {
		var key, slug string
		if err := rows.Scan(&key, &slug); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan slug assignment")
		}
		out[key] = slug
	}
	return out, eris.Wrap(rows.Err(), "sqlite: slug assignments iterate")
}

// AssignSlugs inserts new assignments in one transaction. Existing keys keep
// their slug; a slug already held by another key fails the whole batch.
func (s *SQLiteStore) AssignSlugs(ctx context.Context, assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin assign slugs")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO slug_assignments (dedup_key, slug, assigned_at) VALUES (?, ?, ?)
		 ON CONFLICT (dedup_key) DO NOTHING`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare assign slugs")
	}
	defer stmt.Close() //nolint:errcheck

	ts := now()
	for key, slug := range assignments {
		if _, err := stmt.ExecContext(ctx, key, slug, ts); err != nil {
			return eris.Wrapf(err, "sqlite: assign slug %s", slug)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit assign slugs")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFacility(row scannable) (*model.Facility, error) {
	var (
		f                          model.Facility
		lat, lng, rating           sql.NullFloat64
		description                sql.NullString
		services, certs, payments  string
		status                     string
		discoveredAt, created, upd time.Time
	)
	err := row.Scan(
		&f.ID, &f.Name, &f.DedupKey, &f.Address, &f.Region, &f.SubRegion, &f.City,
		&lat, &lng, &f.Phone, &f.Website,
		&services, &certs, &payments,
		&description, &status,
		&discoveredAt, &f.Source.Query, &f.Source.ProviderID,
		&rating, &f.ReviewCount, &created, &upd,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan facility")
	}

	f.EnrichmentStatus = model.EnrichmentStatus(status)
	f.Source.DiscoveredAt = discoveredAt
	f.CreatedAt, f.UpdatedAt = created, upd
	if lat.Valid {
		f.Lat = &lat.Float64
	}
	if lng.Valid {
		f.Lng = &lng.Float64
	}
	if rating.Valid {
		f.Rating = &rating.Float64
	}
	if description.Valid {
		f.Description = &description.String
	}
	for _, t := range []struct {
		raw string
		dst *[]string
	}{
		{services, &f.ServiceTypes},
		{certs, &f.Certifications},
		{payments, &f.PaymentMethods},
	} {
		if err := json.Unmarshal([]byte(t.raw), t.dst); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal tags for %s", f.ID)
		}
	}
	return &f, nil
}

func scanAttempt(row scannable) (*model.EnrichmentAttempt, error) {
	var a model.EnrichmentAttempt
	err := row.Scan(&a.FacilityID, &a.TransientAttempts, &a.ValidationAttempts, &a.LastError, &a.LastAttemptAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan attempt")
	}
	return &a, nil
}

func marshalTags(f *model.Facility) (services, certs, payments string, err error) {
	enc := func(tags []string) (string, error) {
		if tags == nil {
			tags = []string{}
		}
		b, err := json.Marshal(tags)
		return string(b), err
	}
	if services, err = enc(f.ServiceTypes); err != nil {
		return "", "", "", eris.Wrap(err, "sqlite: marshal service types")
	}
	if certs, err = enc(f.Certifications); err != nil {
		return "", "", "", eris.Wrap(err, "sqlite: marshal certifications")
	}
	if payments, err = enc(f.PaymentMethods); err != nil {
		return "", "", "", eris.Wrap(err, "sqlite: marshal payment methods")
	}
	return services, certs, payments, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
