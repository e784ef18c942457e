// Package clipboard implements the persistent retention and search
// engine for clipvault.
//
// It uses SQLite with FTS5 full-text search to store clipboard records
// with pin-based retention, a bounded recency window for everything
// unpinned, and age-based expiry for private records. The FTS index is
// updated with explicit statements inside the same transaction as every
// table mutation, so the two structures can never drift apart.
package clipboard

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/clipvault/internal/security"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("validation failed")

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds the retention engine configuration.
type Config struct {
	DataDir    string
	MaxRecords int           // ceiling for non-pinned records
	PrivateTTL time.Duration // age after which private records expire
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:    filepath.Join(home, ".clipvault"),
		MaxRecords: 50,
		PrivateTTL: time.Hour,
	}
}

// Stats holds aggregate store statistics.
type Stats struct {
	Total          int   `json:"total"`
	Pinned         int   `json:"pinned"`
	FileBacked     int   `json:"file_backed"`
	CacheSizeBytes int64 `json:"cache_size_bytes"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the retention and search engine backed by SQLite + FTS5.
// All operations run against one connection; the database is opened in
// WAL mode so external readers do not block the writer.
type Store struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, runs the migration,
// and performs startup maintenance: expiring stale private records and
// evicting non-pinned records beyond the ceiling.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 50
	}
	if cfg.PrivateTTL <= 0 {
		cfg.PrivateTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("clipboard: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "clipboard.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("clipboard: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("clipboard: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("clipboard: migration: %w", err)
	}

	if n, err := s.ExpirePrivate(); err != nil {
		logger.Warn("startup private expiry failed", "error", err)
	} else if n > 0 {
		logger.Info("expired private records at startup", "count", n)
	}
	if n, err := s.EvictExcess(); err != nil {
		logger.Warn("startup eviction failed", "error", err)
	} else if n > 0 {
		logger.Info("evicted excess records at startup", "count", n)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DatabasePath returns the location of the database file.
func (s *Store) DatabasePath() string {
	return filepath.Join(s.cfg.DataDir, "clipboard.db")
}

// migrate creates the records table and its FTS5 index. The FTS table
// is standalone (not external-content) and addressed by rowid, so rows
// can be inserted and deleted with ordinary statements inside the same
// transaction as the records mutation.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			content          TEXT    NOT NULL,
			content_type     TEXT    NOT NULL,
			preview          TEXT    NOT NULL,
			is_pinned        INTEGER NOT NULL DEFAULT 0,
			is_private       INTEGER NOT NULL DEFAULT 0,
			cached_file_path TEXT,
			original_path    TEXT,
			file_size        INTEGER,
			mime_type        TEXT,
			created_at       TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at       TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_records_pinned  ON records(is_pinned);
		CREATE INDEX IF NOT EXISTS idx_records_private ON records(is_private, created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			content,
			preview
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Inserts ─────────────────────────────────────────────────────────────────

// InsertText persists a text or html record, computes its preview, and
// runs eviction maintenance. Empty or whitespace-only content fails
// with ErrValidation.
func (s *Store) InsertText(content string, contentType ContentType, isPrivate bool) (*Record, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrValidation)
	}
	if !ValidTextType(contentType) {
		return nil, fmt.Errorf("%w: content_type must be %q or %q", ErrValidation, TypeText, TypeHTML)
	}

	id, err := s.insertRecord(content, contentType, textPreview(content), isPrivate, nil)
	if err != nil {
		return nil, err
	}

	if _, err := s.EvictExcess(); err != nil {
		s.logger.Warn("eviction after insert failed", "error", err)
	}
	return s.Get(id)
}

// InsertFileParams holds the pre-validated inputs for a file record.
// The caller has already validated the path, resolved it, confirmed
// existence, copied the bytes into the cache, and enforced the size
// ceiling — this operation is pure persistence.
type InsertFileParams struct {
	CachedPath   string
	OriginalPath string
	ContentType  ContentType
	MimeType     string
	FileSize     int64
	IsPrivate    bool
}

// InsertFile persists a file-backed record. OriginalPath is stored as
// both content and original_path; the preview is the "name (size)" form.
func (s *Store) InsertFile(p InsertFileParams) (*Record, error) {
	if p.OriginalPath == "" || p.CachedPath == "" {
		return nil, fmt.Errorf("%w: file record needs original and cached paths", ErrValidation)
	}

	preview := filePreview(p.OriginalPath, p.FileSize)
	id, err := s.insertRecord(p.OriginalPath, p.ContentType, preview, p.IsPrivate, &p)
	if err != nil {
		return nil, err
	}

	if _, err := s.EvictExcess(); err != nil {
		s.logger.Warn("eviction after insert failed", "error", err)
	}
	return s.Get(id)
}

// insertRecord writes the row and its FTS entry in one transaction.
func (s *Store) insertRecord(content string, contentType ContentType, preview string, isPrivate bool, file *InsertFileParams) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("clipboard: begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var res sql.Result
	if file == nil {
		res, err = tx.Exec(
			`INSERT INTO records (content, content_type, preview, is_private)
			 VALUES (?, ?, ?, ?)`,
			content, string(contentType), preview, boolInt(isPrivate),
		)
	} else {
		res, err = tx.Exec(
			`INSERT INTO records (content, content_type, preview, is_private, cached_file_path, original_path, file_size, mime_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			content, string(contentType), preview, boolInt(isPrivate),
			file.CachedPath, file.OriginalPath, file.FileSize, file.MimeType,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("clipboard: insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("clipboard: insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO records_fts (rowid, content, preview) VALUES (?, ?, ?)`,
		id, content, preview,
	); err != nil {
		return 0, fmt.Errorf("clipboard: index record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("clipboard: commit insert: %w", err)
	}
	return id, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

const recordColumns = `id, content, content_type, preview, is_pinned, is_private,
	cached_file_path, original_path, file_size, mime_type, created_at, updated_at`

// Get retrieves a record by id. Returns ErrNotFound if absent.
func (s *Store) Get(id int64) (*Record, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return rec, err
}

// List returns records ordered pinned-first, then newest-first with id
// as the tie-break. Private records are excluded unless includePrivate.
func (s *Store) List(limit int, includePrivate bool) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if !includePrivate {
		query += ` WHERE is_private = 0`
	}
	query += ` ORDER BY is_pinned DESC, created_at DESC, id DESC LIMIT ?`

	return s.queryRecords(query, limit)
}

// Latest returns the most recently created non-private record. Pin
// status does not affect which record is latest.
func (s *Store) Latest() (*Record, error) {
	row := s.db.QueryRow(
		`SELECT ` + recordColumns + ` FROM records
		 WHERE is_private = 0
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: clipboard is empty", ErrNotFound)
	}
	return rec, err
}

// Search runs a full-text query against content and preview. The query
// is sanitized for the FTS5 grammar first; a query that sanitizes to
// nothing returns an empty result, not an error. Private records are
// excluded unconditionally. Ordering matches List.
func (s *Store) Search(query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	fts := security.SanitizeSearchQuery(query)
	if fts == "" {
		return nil, nil
	}

	return s.queryRecords(
		`SELECT `+prefixColumns("r.")+`
		 FROM records_fts f
		 JOIN records r ON r.id = f.rowid
		 WHERE records_fts MATCH ? AND r.is_private = 0
		 ORDER BY r.is_pinned DESC, r.created_at DESC, r.id DESC
		 LIMIT ?`,
		fts, limit,
	)
}

// Stats returns aggregate store statistics. CacheSizeBytes is the sum
// of the recorded sizes of all file-backed records.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(is_pinned), 0),
		        COALESCE(SUM(cached_file_path IS NOT NULL), 0),
		        COALESCE(SUM(CASE WHEN cached_file_path IS NOT NULL THEN file_size ELSE 0 END), 0)
		 FROM records`,
	).Scan(&stats.Total, &stats.Pinned, &stats.FileBacked, &stats.CacheSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("clipboard: stats: %w", err)
	}
	return stats, nil
}

// ─── Mutations ───────────────────────────────────────────────────────────────

// TogglePin flips the pin flag. Returns whether a record was found.
func (s *Store) TogglePin(id int64) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE records
		 SET is_pinned = 1 - is_pinned, updated_at = datetime('now')
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("clipboard: toggle pin: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes a record and its cache file, if any. Returns whether
// the record existed. A cache-file removal failure is logged and does
// not fail the deletion.
func (s *Store) Delete(id int64) (bool, error) {
	rec, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.deleteRows([]int64{id}); err != nil {
		return false, err
	}

	if rec.FileBacked() {
		s.removeCacheFile(*rec.CachedFilePath)
	}
	return true, nil
}

// Clear bulk-deletes records, removing the cache file of every deleted
// record. With includePinned it wipes everything and resets the id
// sequence; otherwise pinned records and the sequence are untouched.
func (s *Store) Clear(includePinned bool) (int, error) {
	where := ` WHERE is_pinned = 0`
	if includePinned {
		where = ``
	}

	victims, err := s.victimRows(`SELECT id, cached_file_path FROM records` + where)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("clipboard: begin clear: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM records` + where); err != nil {
		return 0, fmt.Errorf("clipboard: clear records: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records_fts WHERE rowid NOT IN (SELECT id FROM records)`); err != nil {
		return 0, fmt.Errorf("clipboard: clear index: %w", err)
	}
	if includePinned {
		// Fresh id sequence after a full wipe. sqlite_sequence does not
		// exist until the first AUTOINCREMENT insert, so its absence is
		// fine.
		if _, err := tx.Exec(`DELETE FROM sqlite_sequence WHERE name = 'records'`); err != nil &&
			!strings.Contains(err.Error(), "no such table") {
			return 0, fmt.Errorf("clipboard: reset sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("clipboard: commit clear: %w", err)
	}

	for _, v := range victims {
		s.removeCacheFile(v.cachedPath)
	}
	return len(victims), nil
}

// ─── Maintenance ─────────────────────────────────────────────────────────────

// EvictExcess keeps the MaxRecords most recently created non-pinned
// records and deletes the rest, cache files first. Pinned records never
// count against the ceiling. Runs after every insert and at startup.
func (s *Store) EvictExcess() (int, error) {
	victims, err := s.victimRows(
		`SELECT id, cached_file_path FROM records
		 WHERE is_pinned = 0
		 ORDER BY created_at DESC, id DESC
		 LIMIT -1 OFFSET ?`,
		s.cfg.MaxRecords,
	)
	if err != nil {
		return 0, err
	}
	if len(victims) == 0 {
		return 0, nil
	}

	for _, v := range victims {
		s.removeCacheFile(v.cachedPath)
	}
	if err := s.deleteRows(victimIDs(victims)); err != nil {
		return 0, err
	}
	return len(victims), nil
}

// ExpirePrivate deletes every private record older than PrivateTTL,
// including its cache file. Pinning does not protect a private record
// from expiry: private marks data as ephemeral, and a retention flag
// must not silently make it durable.
func (s *Store) ExpirePrivate() (int, error) {
	victims, err := s.victimRows(
		`SELECT id, cached_file_path FROM records
		 WHERE is_private = 1
		   AND datetime(created_at) <= datetime('now', ?)`,
		ttlExpression(s.cfg.PrivateTTL),
	)
	if err != nil {
		return 0, err
	}
	if len(victims) == 0 {
		return 0, nil
	}

	for _, v := range victims {
		s.removeCacheFile(v.cachedPath)
	}
	if err := s.deleteRows(victimIDs(victims)); err != nil {
		return 0, err
	}
	return len(victims), nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type victim struct {
	id         int64
	cachedPath string
}

func (s *Store) victimRows(query string, args ...any) ([]victim, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("clipboard: select victims: %w", err)
	}
	defer rows.Close()

	var victims []victim
	for rows.Next() {
		var v victim
		var cached sql.NullString
		if err := rows.Scan(&v.id, &cached); err != nil {
			return nil, err
		}
		v.cachedPath = cached.String
		victims = append(victims, v)
	}
	return victims, rows.Err()
}

func victimIDs(victims []victim) []int64 {
	ids := make([]int64, len(victims))
	for i, v := range victims {
		ids[i] = v.id
	}
	return ids
}

// deleteRows removes records and their FTS entries atomically.
func (s *Store) deleteRows(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("clipboard: begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM records WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("clipboard: delete records: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records_fts WHERE rowid IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("clipboard: delete index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clipboard: commit delete: %w", err)
	}
	return nil
}

// removeCacheFile is best-effort: record deletion must succeed even
// when the owned copy cannot be removed.
func (s *Store) removeCacheFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("cache file removal failed", "path", path, "error", err)
	}
}

func (s *Store) queryRecords(query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("clipboard: query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var contentType string
	var pinned, private int
	if err := row.Scan(
		&rec.ID, &rec.Content, &contentType, &rec.Preview, &pinned, &private,
		&rec.CachedFilePath, &rec.OriginalPath, &rec.FileSize, &rec.MimeType,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.ContentType = ContentType(contentType)
	rec.IsPinned = pinned != 0
	rec.IsPrivate = private != 0
	return &rec, nil
}

// prefixColumns qualifies the record column list for joined queries.
func prefixColumns(prefix string) string {
	cols := strings.Split(recordColumns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ttlExpression renders a TTL as a SQLite datetime modifier, e.g. "-3600 seconds".
func ttlExpression(ttl time.Duration) string {
	seconds := int(ttl.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return "-" + strconv.Itoa(seconds) + " seconds"
}
