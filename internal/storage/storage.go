// Package storage keeps the search history in a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	decimalBase                        = 10
	defaultReducePrecisionDecimalPlace = 2
	defaultCacheSize                   = -1024 * 16 // negative value for KiB
	defaultPageSize                    = 4096
	popularCacheExpiry                 = 5 * time.Minute
	popularCacheCleanup                = 10 * time.Minute
	clusterDistanceMeters              = 1000
	timeLayout                         = "2006-01-02T15:04:05.000000000Z" // fixed width, sorts as text
)

type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

// SearchEntry is one row of the search history.
type SearchEntry struct {
	ID        int64              `json:"id"`
	RunID     string             `json:"runId"`
	Strategy  string             `json:"strategy"`
	ProductID string             `json:"productId"`
	RadiusKm  int                `json:"radiusKm"`
	Center    *locate.Coordinate `json:"center,omitempty"`
	UnitID    string             `json:"unitId,omitempty"`
	Markers   int                `json:"markers"`
	State     string             `json:"state"`
	ErrorKind string             `json:"errorKind,omitempty"`
	At        time.Time          `json:"at"`
}

// PopularLocation is a cluster of nearby search centers.
type PopularLocation struct {
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lng"`
	SearchCount int64     `json:"weight"`
	RadiusKm    float64   `json:"radiusKm"`
	LastSearch  time.Time `json:"lastSearch"`
}

type locationLog struct {
	id          int64
	latitude    float64
	longitude   float64
	radiusKm    float64
	searchCount int64
	lastSearch  time.Time
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configureSQLitePragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	logger.Debug("History tables created or verified", "db", dbPath)

	return &Storage{
		db:    db,
		cache: cache.New(popularCacheExpiry, popularCacheCleanup),
		log:   logger,
	}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS search_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		product_id TEXT NOT NULL,
		radius_km INTEGER NOT NULL,
		latitude REAL,
		longitude REAL,
		unit_id TEXT NOT NULL DEFAULT '',
		markers INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		searched_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_logs_searched_at ON search_logs (searched_at);

	CREATE TABLE IF NOT EXISTS location_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		radius_km REAL NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 1,
		last_search TEXT NOT NULL
	);

	-- Index for faster searches on location coordinates
	CREATE INDEX IF NOT EXISTS idx_location_logs_coordinates ON location_logs (latitude, longitude);
	`)
	return err
}

func configureSQLitePragmas(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA auto_vacuum = INCREMENTAL;"); err != nil {
		return fmt.Errorf("error setting auto vacuum: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", defaultCacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize)); err != nil {
		return fmt.Errorf("error setting page size: %w", err)
	}
	return nil
}

// RecordSearch stores a finished run. Runs with a center also bump the
// popularity counter of that area.
func (s *Storage) RecordSearch(ctx context.Context, rec locate.SearchRecord) error {
	var lat, lng sql.NullFloat64
	if rec.Center != nil {
		lat = sql.NullFloat64{Float64: rec.Center.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: rec.Center.Longitude, Valid: true}
	}

	at := rec.At.UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_logs (run_id, strategy, product_id, radius_km, latitude, longitude, unit_id, markers, state, error_kind, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, string(rec.Strategy), rec.ProductID, rec.RadiusKm, lat, lng,
		rec.UnitID, rec.Markers, rec.State.String(), string(rec.ErrorKind), at)
	if err != nil {
		return fmt.Errorf("error logging search: %w", err)
	}

	if rec.Center == nil || rec.State != locate.StateSucceeded {
		return nil
	}
	if err := s.logSearchLocation(ctx, *rec.Center, float64(rec.RadiusKm), at); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *Storage) logSearchLocation(ctx context.Context, center locate.Coordinate, radiusKm float64, at string) error {
	var id int64

	lat, lng := reduceLocationPrecision(center.Latitude, center.Longitude, defaultReducePrecisionDecimalPlace)
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM location_logs
		WHERE latitude = ? AND longitude = ?
		LIMIT 1
	`, lat, lng).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO location_logs (latitude, longitude, radius_km, last_search)
			VALUES (?, ?, ?, ?)
		`, lat, lng, radiusKm, at)
		if err != nil {
			return fmt.Errorf("error logging search location: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking for existing location: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE location_logs
		SET search_count = search_count + 1, last_search = ?, radius_km = MAX(radius_km, ?)
		WHERE id = ?
	`, at, radiusKm, id)
	if err != nil {
		return fmt.Errorf("error updating search location: %w", err)
	}
	return nil
}

// RecentSearches returns the latest runs, newest first. A limit of 0 returns
// every run.
func (s *Storage) RecentSearches(ctx context.Context, limit int) ([]SearchEntry, error) {
	query := `SELECT id, run_id, strategy, product_id, radius_km, latitude, longitude, unit_id, markers, state, error_kind, searched_at
			  FROM search_logs
			  ORDER BY searched_at DESC, id DESC `
	if limit > 0 {
		query += "LIMIT " + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying search history: %w", err)
	}
	defer rows.Close()

	entries := []SearchEntry{}
	for rows.Next() {
		var e SearchEntry
		var lat, lng sql.NullFloat64
		var at string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Strategy, &e.ProductID, &e.RadiusKm,
			&lat, &lng, &e.UnitID, &e.Markers, &e.State, &e.ErrorKind, &at); err != nil {
			return nil, fmt.Errorf("error scanning search log: %w", err)
		}
		if lat.Valid && lng.Valid {
			e.Center = &locate.Coordinate{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("error parsing search time %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return entries, nil
}

func (s *Storage) locationLogs(ctx context.Context) ([]locationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, radius_km, search_count, last_search
		FROM location_logs
		ORDER BY search_count DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving location logs: %w", err)
	}
	defer rows.Close()

	var logs []locationLog
	for rows.Next() {
		var l locationLog
		var last string
		if err := rows.Scan(&l.id, &l.latitude, &l.longitude, &l.radiusKm, &l.searchCount, &last); err != nil {
			return nil, fmt.Errorf("error scanning location log: %w", err)
		}
		if l.lastSearch, err = time.Parse(timeLayout, last); err != nil {
			return nil, fmt.Errorf("error parsing search time %q: %w", last, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return logs, nil
}

// PopularLocations clusters search centers closer than a kilometer and
// returns the busiest clusters first. A limit of 0 returns every cluster.
func (s *Storage) PopularLocations(ctx context.Context, limit int) ([]PopularLocation, error) {
	key := "popular_" + strconv.Itoa(limit)
	if cached, found := s.cache.Get(key); found {
		return cached.([]PopularLocation), nil
	}

	logs, err := s.locationLogs(ctx)
	if err != nil {
		return nil, err
	}

	processed := make(map[int64]bool)
	popular := []PopularLocation{}

	for i, l := range logs {
		if processed[l.id] {
			continue
		}
		processed[l.id] = true

		cluster := PopularLocation{
			Latitude:    l.latitude,
			Longitude:   l.longitude,
			SearchCount: l.searchCount,
			RadiusKm:    l.radiusKm,
			LastSearch:  l.lastSearch,
		}

		for j, other := range logs {
			if i == j || processed[other.id] {
				continue
			}

			distance := gpx.Distance2D(l.latitude, l.longitude, other.latitude, other.longitude, true)
			if distance > clusterDistanceMeters {
				continue
			}
			processed[other.id] = true

			total := float64(cluster.SearchCount + other.searchCount)
			cluster.Latitude = (cluster.Latitude*float64(cluster.SearchCount) + other.latitude*float64(other.searchCount)) / total
			cluster.Longitude = (cluster.Longitude*float64(cluster.SearchCount) + other.longitude*float64(other.searchCount)) / total
			cluster.SearchCount += other.searchCount
			if other.radiusKm > cluster.RadiusKm {
				cluster.RadiusKm = other.radiusKm
			}
			if other.lastSearch.After(cluster.LastSearch) {
				cluster.LastSearch = other.lastSearch
			}
		}

		popular = append(popular, cluster)
	}

	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].SearchCount > popular[j].SearchCount
	})
	if limit > 0 && len(popular) > limit {
		popular = popular[:limit]
	}

	s.cache.Set(key, popular, cache.DefaultExpiration)
	return popular, nil
}

// Prune deletes history older than cutoff and returns how many searches were
// removed.
func (s *Storage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	before := cutoff.UTC().Format(timeLayout)
	s.log.Info("Starting cleanup of old searches", "cutoff", before)

	res, err := s.db.ExecContext(ctx, "DELETE FROM search_logs WHERE searched_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("error deleting search logs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted search logs: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM location_logs WHERE last_search < ?", before); err != nil {
		return deleted, fmt.Errorf("error deleting location logs: %w", err)
	}
	s.cache.Flush()

	s.log.Info("Completed search history cleanup", "deleted_count", deleted)
	return deleted, s.VacuumDatabase(ctx)
}

func (s *Storage) VacuumDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA incremental_vacuum(1000)")
	if err != nil {
		return fmt.Errorf("error performing incremental vacuum: %w", err)
	}

	return nil
}

func reduceLocationPrecision(lat, lng float64, decimalPlaces int) (roundedLat, roundedLng float64) {
	factor := math.Pow(decimalBase, float64(decimalPlaces))
	roundedLat = math.Round(lat*factor) / factor
	roundedLng = math.Round(lng*factor) / factor
	return
}
