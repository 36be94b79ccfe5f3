// Package server exposes the generator and detector as an HTTP service
// with token-authenticated document management backed by SQLite.
package server

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("username already taken")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	expires_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	owner_id          TEXT NOT NULL REFERENCES users(id),
	filename          TEXT NOT NULL,
	scan_limit        INTEGER NOT NULL,
	scan_count        INTEGER NOT NULL DEFAULT 0,
	security_metadata TEXT NOT NULL,
	qr_png            BLOB NOT NULL,
	pdf               BLOB,
	created_at        TEXT NOT NULL
);
`

// User is a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Document is a protected document with its sealed security metadata
// and generated QR seal.
type Document struct {
	ID             string
	OwnerID        string
	Filename       string
	ScanLimit      int
	ScanCount      int
	SealedMetadata string
	QRPNG          []byte
	PDF            []byte
	CreatedAt      time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) the database at dsn.
// Pass ":memory:" for an ephemeral store.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes access; a single connection also keeps
	// :memory: databases from silently splitting per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateUser inserts a new account.
func (s *Store) CreateUser(u User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		var existing int
		if qerr := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, u.Username).Scan(&existing); qerr == nil && existing > 0 {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// UserByUsername looks up an account by username.
func (s *Store) UserByUsername(username string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// InsertToken stores a bearer token for a user.
func (s *Store) InsertToken(token, userID string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO tokens (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

// UserIDForToken resolves a token to its user, enforcing expiry.
func (s *Store) UserIDForToken(token string, now time.Time) (string, error) {
	var userID, expiresAt string
	err := s.db.QueryRow(
		`SELECT user_id, expires_at FROM tokens WHERE token = ?`, token,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || now.After(exp) {
		return "", ErrNotFound
	}
	return userID, nil
}

// CreateDocument inserts a protected document.
func (s *Store) CreateDocument(d Document) error {
	_, err := s.db.Exec(
		`INSERT INTO documents (id, owner_id, filename, scan_limit, scan_count, security_metadata, qr_png, pdf, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.Filename, d.ScanLimit, d.ScanCount, d.SealedMetadata, d.QRPNG, d.PDF,
		d.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// DocumentByID loads a document.
func (s *Store) DocumentByID(id string) (Document, error) {
	var d Document
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, owner_id, filename, scan_limit, scan_count, security_metadata, qr_png, pdf, created_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.OwnerID, &d.Filename, &d.ScanLimit, &d.ScanCount, &d.SealedMetadata, &d.QRPNG, &d.PDF, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return d, nil
}

// IncrementScanCount bumps a document's scan counter and returns the
// new value.
func (s *Store) IncrementScanCount(id string) (int, error) {
	res, err := s.db.Exec(`UPDATE documents SET scan_count = scan_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNotFound
	}
	var count int
	if err := s.db.QueryRow(`SELECT scan_count FROM documents WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
