package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS watches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shop_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE(shop_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		watch_id INTEGER NOT NULL REFERENCES watches(id) ON DELETE CASCADE,
		price REAL NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_watch ON price_history(watch_id, recorded_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddWatch registers a product for price tracking. Adding the same
// product twice updates its name.
func (s *Store) AddWatch(shopID, itemID int64, name string) (*Watch, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO watches (shop_id, item_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(shop_id, item_id) DO UPDATE SET name = excluded.name
	`, shopID, itemID, name, now)
	if err != nil {
		return nil, err
	}

	w := &Watch{ShopID: shopID, ItemID: itemID, Name: name, CreatedAt: now}
	err = s.db.QueryRow(
		`SELECT id, created_at FROM watches WHERE shop_id = ? AND item_id = ?`,
		shopID, itemID,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveWatch deletes a watch and its recorded prices.
func (s *Store) RemoveWatch(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM price_history WHERE watch_id = ?`, id); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM watches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListWatches returns all watches, oldest first.
func (s *Store) ListWatches() ([]Watch, error) {
	rows, err := s.db.Query(`
		SELECT id, shop_id, item_id, name, created_at
		FROM watches
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watches []Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(&w.ID, &w.ShopID, &w.ItemID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

// RecordPrice appends a price observation for a watch.
func (s *Store) RecordPrice(watchID int64, price float64) error {
	_, err := s.db.Exec(`
		INSERT INTO price_history (watch_id, price, recorded_at)
		VALUES (?, ?, ?)
	`, watchID, price, time.Now().UTC())
	return err
}

// PriceHistory returns recorded prices for a watch, newest first.
func (s *Store) PriceHistory(watchID int64, limit int) ([]PricePoint, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, watch_id, price, recorded_at
		FROM price_history
		WHERE watch_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, watchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.ID, &p.WatchID, &p.Price, &p.RecordedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestPrice returns the most recent recorded price for a watch, or
// sql.ErrNoRows if none has been recorded yet.
func (s *Store) LatestPrice(watchID int64) (*PricePoint, error) {
	var p PricePoint
	err := s.db.QueryRow(`
		SELECT id, watch_id, price, recorded_at
		FROM price_history
		WHERE watch_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, watchID).Scan(&p.ID, &p.WatchID, &p.Price, &p.RecordedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
