package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"poker24/internal/model"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

//go:embed schema.sql
var schema string

// Dense ranking over every account; ties broken by fewer games, faster average, then name
const recomputeRanksSQL = `
UPDATE user_info
SET ranking = ranked.new_rank
FROM (
    SELECT name, ROW_NUMBER() OVER (ORDER BY wins DESC, games ASC, avg ASC, name ASC) AS new_rank
    FROM user_info
) AS ranked
WHERE user_info.name = ranked.name`

// UserRepo is the ranking store: accounts, their stats and the online set
type UserRepo interface {
	Get(ctx context.Context, name string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Register(ctx context.Context, user *model.NewUser, passwordHash string) error
	PasswordHash(ctx context.Context, name string) (string, error)
	MarkOnline(ctx context.Context, name string) (bool, error)
	MarkOffline(ctx context.Context, name string) error
	ClearOnline(ctx context.Context) error
	UpdatePlayerStats(ctx context.Context, name string, won bool, elapsed float64) error
	RecomputeRanks(ctx context.Context) error
	Close() error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type userRepo struct {
	db *sql.DB

	// rankMu serializes rank recomputation so no reader sees a half-ranked table
	rankMu sync.Mutex
}

// OpenUserRepo opens the SQLite database at path and creates the schema
func OpenUserRepo(path string) (UserRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: every write is serialized and readers never observe a partial batch
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &userRepo{db: db}, nil
}

func (r *userRepo) Close() error {
	return r.db.Close()
}

func (r *userRepo) Get(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT name, games, wins, avg, ranking FROM user_info WHERE name = ?`, name,
	).Scan(&u.Name, &u.GamesPlayed, &u.GamesWon, &u.AvgTimeToWin, &u.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", name, err)
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, games, wins, avg, ranking FROM user_info
		 ORDER BY ranking = 0, ranking, name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Name, &u.GamesPlayed, &u.GamesWon, &u.AvgTimeToWin, &u.Rank); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Register inserts the account, ranks it and marks it online in one transaction
func (r *userRepo) Register(ctx context.Context, user *model.NewUser, passwordHash string) error {
	r.rankMu.Lock()
	defer r.rankMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_info (name, password, games, wins, avg, ranking) VALUES (?, ?, ?, ?, ?, 0)`,
		user.Name, passwordHash, user.GamesPlayed, user.GamesWon, user.AvgTimeToWin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user %s: %w", user.Name, err)
	}
	if err := recomputeRanks(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO online_users (name) VALUES (?)`, user.Name); err != nil {
		return fmt.Errorf("mark %s online: %w", user.Name, err)
	}
	return tx.Commit()
}

func (r *userRepo) PasswordHash(ctx context.Context, name string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password FROM user_info WHERE name = ?`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password of %s: %w", name, err)
	}
	return hash, nil
}

// MarkOnline adds name to the online set. It returns false if name was already online.
func (r *userRepo) MarkOnline(ctx context.Context, name string) (bool, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO online_users (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark %s online: %w", name, err)
	}
	return true, nil
}

func (r *userRepo) MarkOffline(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM online_users WHERE name = ?`, name); err != nil {
		return fmt.Errorf("mark %s offline: %w", name, err)
	}
	return nil
}

// ClearOnline empties the online set; nobody is connected right after startup
func (r *userRepo) ClearOnline(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM online_users`); err != nil {
		return fmt.Errorf("clear online users: %w", err)
	}
	return nil
}

// UpdatePlayerStats counts one game for name. A win also folds elapsed into the
// average time to win, rounded to two decimals.
func (r *userRepo) UpdatePlayerStats(ctx context.Context, name string, won bool, elapsed float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_info SET
		   games = games + 1,
		   avg = CASE WHEN ? THEN ROUND((avg * wins + ?) / (wins + 1), 2) ELSE avg END,
		   wins = wins + CASE WHEN ? THEN 1 ELSE 0 END
		 WHERE name = ?`,
		won, elapsed, won, name)
	if err != nil {
		return fmt.Errorf("update stats of %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stats of %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("update stats of %s: %w", name, ErrUserNotFound)
	}
	return nil
}

func (r *userRepo) RecomputeRanks(ctx context.Context) error {
	r.rankMu.Lock()
	defer r.rankMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recompute: %w", err)
	}
	defer tx.Rollback()

	if err := recomputeRanks(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func recomputeRanks(ctx context.Context, ex execer) error {
	if _, err := ex.ExecContext(ctx, recomputeRanksSQL); err != nil {
		return fmt.Errorf("recompute ranks: %w", err)
	}
	return nil
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
