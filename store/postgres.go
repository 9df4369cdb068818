package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"immo-scouter/config"
	"immo-scouter/models"
)

// Postgres implements Store on a PostgreSQL database.
type Postgres struct {
	conn *sql.DB
}

// NewPostgres opens the database from DATABASE_URL or the individual
// DB_* variables and initializes the schema.
func NewPostgres() (*Postgres, error) {
	connStr := config.GetEnvOrDefault("DATABASE_URL", "")
	if connStr == "" {
		host := config.GetEnvOrDefault("DB_HOST", "localhost")
		port := config.GetEnvOrDefault("DB_PORT", "5432")
		user := config.GetEnvOrDefault("DB_USER", "immo_scouter")
		password := config.GetEnvOrDefault("DB_PASSWORD", "")
		dbname := config.GetEnvOrDefault("DB_NAME", "immo_scouter")
		sslmode := config.GetEnvOrDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Postgres{conn: conn}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Postgres) Close() error {
	return s.conn.Close()
}

func (s *Postgres) initSchema() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			url TEXT PRIMARY KEY,
			source VARCHAR(32) NOT NULL,
			title TEXT,
			bezirk VARCHAR(4),
			address TEXT,
			condition TEXT,
			heating TEXT,
			price_total DOUBLE PRECISION,
			area_m2 DOUBLE PRECISION,
			rooms DOUBLE PRECISION,
			year_built INTEGER,
			floor_level INTEGER,
			price_per_m2 DOUBLE PRECISION,
			energy_class VARCHAR(4),
			hwb_value DOUBLE PRECISION,
			betriebskosten DOUBLE PRECISION,
			ubahn_walk_minutes INTEGER,
			school_walk_minutes INTEGER,
			balcony_terrace BOOLEAN,
			monthly_rate DOUBLE PRECISION,
			total_monthly_cost DOUBLE PRECISION,
			special_features TEXT[],
			potential_growth_rating INTEGER,
			renovation_needed_rating INTEGER,
			score DOUBLE PRECISION,
			image_url TEXT,
			image_ref TEXT,
			processed_at TIMESTAMP NOT NULL,
			sent_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_listings_score ON listings(score)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_sent_at ON listings(sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source)`,
	} {
		if _, err := s.conn.Exec(stmt); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	slog.Info("database schema initialized")
	return nil
}

const listingColumns = `url, source, title, bezirk, address, condition, heating,
	price_total, area_m2, rooms, year_built, floor_level, price_per_m2,
	energy_class, hwb_value, betriebskosten, ubahn_walk_minutes,
	school_walk_minutes, balcony_terrace, monthly_rate, total_monthly_cost,
	special_features, potential_growth_rating, renovation_needed_rating,
	score, image_url, image_ref, processed_at, sent_at`

func (s *Postgres) Upsert(ctx context.Context, l *models.Listing) error {
	// The whole record is replaced on conflict except sent_at, which
	// belongs to the dispatch history and survives re-processing.
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
		ON CONFLICT (url) DO UPDATE SET
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			bezirk = EXCLUDED.bezirk,
			address = EXCLUDED.address,
			condition = EXCLUDED.condition,
			heating = EXCLUDED.heating,
			price_total = EXCLUDED.price_total,
			area_m2 = EXCLUDED.area_m2,
			rooms = EXCLUDED.rooms,
			year_built = EXCLUDED.year_built,
			floor_level = EXCLUDED.floor_level,
			price_per_m2 = EXCLUDED.price_per_m2,
			energy_class = EXCLUDED.energy_class,
			hwb_value = EXCLUDED.hwb_value,
			betriebskosten = EXCLUDED.betriebskosten,
			ubahn_walk_minutes = EXCLUDED.ubahn_walk_minutes,
			school_walk_minutes = EXCLUDED.school_walk_minutes,
			balcony_terrace = EXCLUDED.balcony_terrace,
			monthly_rate = EXCLUDED.monthly_rate,
			total_monthly_cost = EXCLUDED.total_monthly_cost,
			special_features = EXCLUDED.special_features,
			potential_growth_rating = EXCLUDED.potential_growth_rating,
			renovation_needed_rating = EXCLUDED.renovation_needed_rating,
			score = EXCLUDED.score,
			image_url = EXCLUDED.image_url,
			image_ref = EXCLUDED.image_ref,
			processed_at = EXCLUDED.processed_at`,
		l.URL, string(l.Source), l.Title, l.Bezirk, l.Address, l.Condition, l.Heating,
		l.PriceTotal, l.AreaM2, l.Rooms, l.YearBuilt, l.FloorLevel, l.PricePerM2,
		l.EnergyClass, l.HWBValue, l.Betriebskosten, l.UBahnWalkMinutes,
		l.SchoolWalkMinutes, l.BalconyTerrace, l.MonthlyRate, l.TotalMonthlyCost,
		pq.Array(l.SpecialFeatures), l.PotentialGrowthRating, l.RenovationNeededRating,
		l.Score, l.ImageURL, l.ImageRef, l.ProcessedAt, l.SentAt)
	if err != nil {
		return fmt.Errorf("failed to upsert listing %s: %w", l.URL, err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, url string) (*models.Listing, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE url = $1`, url)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %s: %w", url, err)
	}
	return l, nil
}

func (s *Postgres) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM listings WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check listing %s: %w", url, err)
	}
	return exists, nil
}

func (s *Postgres) FindCandidates(ctx context.Context, q CandidateQuery) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings
		WHERE score IS NOT NULL AND score >= $1`
	args := []any{q.MinScore}

	if q.MinRooms > 0 {
		args = append(args, q.MinRooms)
		query += fmt.Sprintf(" AND rooms >= $%d", len(args))
	}
	if len(q.ExcludedDistricts) > 0 {
		args = append(args, pq.Array(q.ExcludedDistricts))
		query += fmt.Sprintf(" AND (bezirk IS NULL OR bezirk != ALL($%d))", len(args))
	}
	if q.SentBefore != nil {
		args = append(args, *q.SentBefore)
		query += fmt.Sprintf(" AND (sent_at IS NULL OR sent_at <= $%d)", len(args))
	}
	query += " ORDER BY score DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *Postgres) MarkSent(ctx context.Context, urls []string, t time.Time) error {
	if len(urls) == 0 {
		return nil
	}
	_, err := s.conn.ExecContext(ctx,
		`UPDATE listings SET sent_at = $1 WHERE url = ANY($2)`, t, pq.Array(urls))
	if err != nil {
		return fmt.Errorf("failed to mark listings sent: %w", err)
	}
	return nil
}

func (s *Postgres) RecentlySent(ctx context.Context, cutoff time.Time) (map[string]time.Time, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT url, sent_at FROM listings WHERE sent_at IS NOT NULL AND sent_at > $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recently sent: %w", err)
	}
	defer rows.Close()

	sent := make(map[string]time.Time)
	for rows.Next() {
		var url string
		var at time.Time
		if err := rows.Scan(&url, &at); err != nil {
			return nil, fmt.Errorf("failed to scan sent row: %w", err)
		}
		sent[url] = at
	}
	return sent, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var source string
	var features pq.StringArray
	err := row.Scan(&l.URL, &source, &l.Title, &l.Bezirk, &l.Address, &l.Condition,
		&l.Heating, &l.PriceTotal, &l.AreaM2, &l.Rooms, &l.YearBuilt, &l.FloorLevel,
		&l.PricePerM2, &l.EnergyClass, &l.HWBValue, &l.Betriebskosten,
		&l.UBahnWalkMinutes, &l.SchoolWalkMinutes, &l.BalconyTerrace, &l.MonthlyRate,
		&l.TotalMonthlyCost, &features, &l.PotentialGrowthRating,
		&l.RenovationNeededRating, &l.Score, &l.ImageURL, &l.ImageRef,
		&l.ProcessedAt, &l.SentAt)
	if err != nil {
		return nil, err
	}
	l.Source = models.Source(source)
	l.SpecialFeatures = features
	return &l, nil
}
