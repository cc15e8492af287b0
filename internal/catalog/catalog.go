package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// RawPlace is a place record as the catalog stores it. Any subset of
// Key/Name/Title may be populated; the chat pipeline normalizes them.
type RawPlace struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Source lists the active places that may appear in prompt context.
type Source interface {
	ListActivePlaces(ctx context.Context) ([]RawPlace, error)
}

// PostgresSource reads places from the catalog tables.
type PostgresSource struct {
	DB  *sql.DB
	Max int // cap on returned rows; 0 means no cap
}

// NewPostgresSource connects to Postgres and verifies the connection.
func NewPostgresSource(ctx context.Context, dsn string, max int) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, err
	}
	return &PostgresSource{DB: db, Max: max}, nil
}

func (s *PostgresSource) ListActivePlaces(ctx context.Context) ([]RawPlace, error) {
	q := `SELECT COALESCE(key,''), COALESCE(name,''), COALESCE(title,''), COALESCE(type,''),
	             COALESCE(description,''), COALESCE(address,''), COALESCE(lat,0), COALESCE(lng,0)
	      FROM places WHERE active ORDER BY name`
	args := []interface{}{}
	if s.Max > 0 {
		q += ` LIMIT $1`
		args = append(args, s.Max)
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()
	var out []RawPlace
	for rows.Next() {
		var p RawPlace
		if err := rows.Scan(&p.Key, &p.Name, &p.Title, &p.Type, &p.Description, &p.Address, &p.Lat, &p.Lng); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StaticSource serves a fixed slice of places. Useful for tests and for
// running without a catalog database.
type StaticSource struct {
	Places []RawPlace
}

func (s *StaticSource) ListActivePlaces(ctx context.Context) ([]RawPlace, error) {
	return s.Places, nil
}
