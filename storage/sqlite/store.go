package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
	"github.com/eznix86/mediawiki-assetsource/assetsource"
	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
	"github.com/eznix86/mediawiki-assetsource/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrAlreadyExists is returned when an imported asset is recorded twice. It
// matches assetsource.ErrAlreadyImported with errors.Is.
var ErrAlreadyExists = fmt.Errorf("imported asset record already exists: %w", assetsource.ErrAlreadyImported)

// Store provides SQLite-backed persistence for query results and imported
// assets.
type Store struct {
	sqlDB *sql.DB

	// QueryResultTTL bounds the age of cached query results (0 = forever).
	QueryResultTTL time.Duration

	now func() time.Time
}

// Open opens and migrates the store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := store.applyMigrations(migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get loads the query result stored under hash. Results older than
// QueryResultTTL are reported as misses.
func (s *Store) Get(ctx context.Context, hash string) (json.Object, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}

	var (
		payload  []byte
		storedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload_json, stored_at FROM query_results WHERE query_hash = ?`,
		hash,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get query result: %w", err)
	}

	if s.QueryResultTTL > 0 && s.clock().Sub(time.UnixMilli(storedAt)) > s.QueryResultTTL {
		return nil, false, nil
	}

	result, err := json.DecodeObject(bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("decode query result: %w", err)
	}
	return result, true, nil
}

// Set upserts the query result stored under hash.
func (s *Store) Set(ctx context.Context, hash string, result json.Object) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode query result: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO query_results (query_hash, payload_json, stored_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(query_hash) DO UPDATE SET
		    payload_json = excluded.payload_json,
		    stored_at = excluded.stored_at`,
		hash,
		payload,
		s.clock().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put query result: %w", err)
	}
	return nil
}

// PurgeQueryResults deletes cached results older than QueryResultTTL, or
// all of them when no TTL is set. It returns the number of rows removed.
func (s *Store) PurgeQueryResults(ctx context.Context) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	cutoff := s.clock().Add(-s.QueryResultTTL).UTC().UnixMilli()
	if s.QueryResultTTL <= 0 {
		cutoff = s.clock().UTC().UnixMilli() + 1
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM query_results WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge query results: %w", err)
	}
	return res.RowsAffected()
}

// FindOne returns the imported asset record, or nil when the asset was
// never imported.
func (s *Store) FindOne(ctx context.Context, assetSourceIdentifier, remoteAssetIdentifier string) (*assetsource.ImportedAsset, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	asset := assetsource.ImportedAsset{
		AssetSourceIdentifier: assetSourceIdentifier,
		RemoteAssetIdentifier: remoteAssetIdentifier,
	}
	var importedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT local_asset_identifier, imported_at
		 FROM imported_assets
		 WHERE asset_source_identifier = ? AND remote_asset_identifier = ?`,
		assetSourceIdentifier,
		remoteAssetIdentifier,
	).Scan(&asset.LocalAssetIdentifier, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get imported asset: %w", err)
	}
	asset.ImportedAt = time.UnixMilli(importedAt).UTC()
	return &asset, nil
}

// Add records an imported asset.
func (s *Store) Add(ctx context.Context, asset assetsource.ImportedAsset) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(asset.AssetSourceIdentifier) == "" || strings.TrimSpace(asset.RemoteAssetIdentifier) == "" {
		return fmt.Errorf("asset source and remote asset identifier are required")
	}
	if asset.ImportedAt.IsZero() {
		asset.ImportedAt = s.clock()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO imported_assets (
		    asset_source_identifier, remote_asset_identifier, local_asset_identifier, imported_at
		 ) VALUES (?, ?, ?, ?)`,
		asset.AssetSourceIdentifier,
		asset.RemoteAssetIdentifier,
		asset.LocalAssetIdentifier,
		asset.ImportedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put imported asset: %w", err)
	}
	return nil
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ mediawiki.Cache                = (*Store)(nil)
	_ assetsource.ImportedAssetStore = (*Store)(nil)
)
