package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/quarryworks/craftbank/pkg/entities"
)

// SQLite table schema. History rides along as a JSON column because it is
// read and written as a unit with its account, never queried on its own.
const createAccountsTableSQL = `
	CREATE TABLE IF NOT EXISTS accounts (
		username TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		balance INTEGER NOT NULL DEFAULT 0,
		total_wagered INTEGER NOT NULL DEFAULT 0,
		total_won INTEGER NOT NULL DEFAULT 0,
		total_lost INTEGER NOT NULL DEFAULT 0,
		linked_id TEXT,
		linked_tag TEXT,
		history TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	)`

// SQLiteRepository implements Repository using SQLite. Only suitable when
// the ledger service is the sole process touching account state; the
// shared-file deployments use FileRepository instead.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite account repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(createAccountsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating accounts table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Get retrieves an account by username
func (r *SQLiteRepository) Get(ctx context.Context, username string) (*entities.Account, error) {
	query := `SELECT username, id, display_name, balance, total_wagered, total_won, total_lost,
		linked_id, linked_tag, history, created_at FROM accounts WHERE username = ?`

	row := r.db.QueryRowContext(ctx, query, entities.NormalizeUsername(username))
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	return account, nil
}

// FindByIdentity retrieves the account holding the given external identity id
func (r *SQLiteRepository) FindByIdentity(ctx context.Context, externalID string) (*entities.Account, error) {
	query := `SELECT username, id, display_name, balance, total_wagered, total_won, total_lost,
		linked_id, linked_tag, history, created_at FROM accounts WHERE linked_id = ?`

	row := r.db.QueryRowContext(ctx, query, externalID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding account by identity: %w", err)
	}

	return account, nil
}

// Save creates or updates an account
func (r *SQLiteRepository) Save(ctx context.Context, account *entities.Account) error {
	history, err := json.Marshal(account.History)
	if err != nil {
		return fmt.Errorf("error marshaling history: %w", err)
	}

	var linkedID, linkedTag sql.NullString
	if account.Linked != nil {
		linkedID = sql.NullString{String: account.Linked.ID, Valid: true}
		linkedTag = sql.NullString{String: account.Linked.Tag, Valid: true}
	}

	query := `
		INSERT INTO accounts (
			username, id, display_name, balance, total_wagered, total_won, total_lost,
			linked_id, linked_tag, history, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			display_name = excluded.display_name,
			balance = excluded.balance,
			total_wagered = excluded.total_wagered,
			total_won = excluded.total_won,
			total_lost = excluded.total_lost,
			linked_id = excluded.linked_id,
			linked_tag = excluded.linked_tag,
			history = excluded.history
	`

	_, err = r.db.ExecContext(ctx, query,
		entities.NormalizeUsername(account.Username),
		account.ID,
		account.DisplayName,
		account.Balance,
		account.TotalWagered,
		account.TotalWon,
		account.TotalLost,
		linkedID,
		linkedTag,
		string(history),
		account.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}

	return nil
}

// List returns every account
func (r *SQLiteRepository) List(ctx context.Context) ([]*entities.Account, error) {
	query := `SELECT username, id, display_name, balance, total_wagered, total_won, total_lost,
		linked_id, linked_tag, history, created_at FROM accounts ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning account row: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

// Reload is a no-op: SQLite reads always hit the database
func (r *SQLiteRepository) Reload(ctx context.Context) error {
	return nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*entities.Account, error) {
	var account entities.Account
	var linkedID, linkedTag sql.NullString
	var history, createdAt string

	err := row.Scan(
		&account.Username,
		&account.ID,
		&account.DisplayName,
		&account.Balance,
		&account.TotalWagered,
		&account.TotalWon,
		&account.TotalLost,
		&linkedID,
		&linkedTag,
		&history,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if linkedID.Valid {
		account.Linked = &entities.LinkedIdentity{ID: linkedID.String, Tag: linkedTag.String}
	}

	if err := json.Unmarshal([]byte(history), &account.History); err != nil {
		return nil, fmt.Errorf("error parsing history: %w", err)
	}

	account.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing timestamp '%s': %w", createdAt, err)
	}

	return &account, nil
}
