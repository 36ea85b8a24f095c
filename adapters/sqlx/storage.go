package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected via Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"scribekit/core"
)

// Driver identifies the SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface on a SQL database.
// Schema:
//   - writer_profiles(writer_id, xp, level, streak, last_write, created_at, updated_at)
//   - content_items(writer_id, status, created_at, word_count, vote_count, bookmark_count)
//   - writer_badges(writer_id, badge, unlocked_at)
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a database connection using the provided configuration
func New(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sql dsn is required")
	}
	db, err := sqlx.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB creates a Store using an existing sqlx.DB (useful for testing)
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection
func (s *Store) Close() error { return s.db.Close() }

// AddXP adds delta to the writer's XP inside a transaction and returns the
// new total. The SELECT-then-write runs under the transaction so concurrent
// awards serialize at the database.
func (s *Store) AddXP(ctx context.Context, writer core.WriterID, delta int64) (int64, error) {
	if delta == 0 {
		return 0, errors.New("delta cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.GetContext(ctx, &current,
		s.db.Rebind(`SELECT xp FROM writer_profiles WHERE writer_id = ?`), writer)
	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO writer_profiles (writer_id, xp, level, streak, created_at, updated_at) VALUES (?, ?, 1, 0, ?, ?)`),
			writer, delta, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert profile: %w", err)
		}
		current = 0
	case err != nil:
		return 0, fmt.Errorf("failed to read xp: %w", err)
	default:
		next, err := core.AddSafe(current, delta)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE writer_profiles SET xp = ?, updated_at = ? WHERE writer_id = ?`),
			next, now, writer)
		if err != nil {
			return 0, fmt.Errorf("failed to update xp: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return current + delta, nil
}

type profileRow struct {
	WriterID  string       `db:"writer_id"`
	XP        int64        `db:"xp"`
	Level     int64        `db:"level"`
	Streak    int          `db:"streak"`
	LastWrite sql.NullTime `db:"last_write"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// Profile reads the writer's stored counters; missing writers get defaults.
func (s *Store) Profile(ctx context.Context, writer core.WriterID) (core.Profile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT writer_id, xp, level, streak, last_write, updated_at FROM writer_profiles WHERE writer_id = ?`), writer)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{ID: writer, Level: 1}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	prof := core.Profile{
		ID:            core.WriterID(row.WriterID),
		XP:            row.XP,
		Level:         row.Level,
		WritingStreak: row.Streak,
		Updated:       row.UpdatedAt,
	}
	if row.LastWrite.Valid {
		prof.LastWriteDate = row.LastWrite.Time
	}
	return prof, nil
}

// SetLevel upserts the writer's stored level
func (s *Store) SetLevel(ctx context.Context, writer core.WriterID, level int64) error {
	return s.upsertProfileField(ctx, writer, "level", level)
}

// SetStreak upserts the writer's stored streak and last write date
func (s *Store) SetStreak(ctx context.Context, writer core.WriterID, streak int, lastWrite time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var lw any
	if !lastWrite.IsZero() {
		lw = lastWrite.UTC()
	}
	exists, err := s.profileExists(ctx, tx, writer)
	if err != nil {
		return err
	}
	if exists {
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE writer_profiles SET streak = ?, last_write = ?, updated_at = ? WHERE writer_id = ?`),
			streak, lw, now, writer)
	} else {
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO writer_profiles (writer_id, xp, level, streak, last_write, created_at, updated_at) VALUES (?, 0, 1, ?, ?, ?, ?)`),
			writer, streak, lw, now, now)
	}
	if err != nil {
		return fmt.Errorf("failed to set streak: %w", err)
	}
	return tx.Commit()
}

// AddContent appends a story snapshot to the writer's history
func (s *Store) AddContent(ctx context.Context, writer core.WriterID, item core.ContentItem) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO content_items (writer_id, status, created_at, word_count, vote_count, bookmark_count) VALUES (?, ?, ?, ?, ?, ?)`),
		writer, string(item.Status), item.CreatedAt.UTC(), item.WordCount, item.VoteCount, item.BookmarkCount)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}

type contentRow struct {
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	WordCount     int64     `db:"word_count"`
	VoteCount     int64     `db:"vote_count"`
	BookmarkCount int64     `db:"bookmark_count"`
}

// ContentItems returns the writer's history ordered by creation time
func (s *Store) ContentItems(ctx context.Context, writer core.WriterID) ([]core.ContentItem, error) {
	var rows []contentRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT status, created_at, word_count, vote_count, bookmark_count FROM content_items WHERE writer_id = ? ORDER BY created_at ASC`), writer)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	items := make([]core.ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, core.ContentItem{
			Status:        core.ContentStatus(r.Status),
			CreatedAt:     r.CreatedAt,
			WordCount:     r.WordCount,
			VoteCount:     r.VoteCount,
			BookmarkCount: r.BookmarkCount,
		})
	}
	return items, nil
}

// UnlockedBadges returns the set of badges already marked unlocked
func (s *Store) UnlockedBadges(ctx context.Context, writer core.WriterID) (map[core.BadgeID]struct{}, error) {
	var badges []string
	err := s.db.SelectContext(ctx, &badges,
		s.db.Rebind(`SELECT badge FROM writer_badges WHERE writer_id = ?`), writer)
	if err != nil {
		return nil, fmt.Errorf("failed to read badges: %w", err)
	}
	out := make(map[core.BadgeID]struct{}, len(badges))
	for _, b := range badges {
		out[core.BadgeID(b)] = struct{}{}
	}
	return out, nil
}

// MarkUnlocked records a badge unlock if not already present
func (s *Store) MarkUnlocked(ctx context.Context, writer core.WriterID, badge core.BadgeID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM writer_badges WHERE writer_id = ? AND badge = ?)`), writer, badge)
	if err != nil {
		return fmt.Errorf("failed to check badge: %w", err)
	}
	if !exists {
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO writer_badges (writer_id, badge, unlocked_at) VALUES (?, ?, ?)`),
			writer, badge, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to insert badge: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) upsertProfileField(ctx context.Context, writer core.WriterID, field string, value int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	exists, err := s.profileExists(ctx, tx, writer)
	if err != nil {
		return err
	}
	if exists {
		// field is a compile-time constant column name, never user input
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE writer_profiles SET `+field+` = ?, updated_at = ? WHERE writer_id = ?`),
			value, now, writer)
	} else {
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO writer_profiles (writer_id, xp, level, streak, created_at, updated_at) VALUES (?, 0, ?, 0, ?, ?)`),
			writer, value, now, now)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", field, err)
	}
	return tx.Commit()
}

func (s *Store) profileExists(ctx context.Context, tx *sqlx.Tx, writer core.WriterID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM writer_profiles WHERE writer_id = ?)`), writer)
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	return exists, nil
}
