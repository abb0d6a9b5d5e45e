package models

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func CreateUser(db *sql.DB, username, passwordHash, role string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO users (id, username, username_lower, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		id, username, strings.ToLower(username), passwordHash, role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return "", ErrDuplicateUsername
		}
		return "", err
	}
	return id, nil
}

// GetUserByUsername matches case-insensitively: "Alice" and "alice"
// are the same account.
func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`SELECT id, username, password_hash, COALESCE(avatar_url, ''), role, created_at FROM users WHERE username_lower = ?`,
		strings.ToLower(username))
	return scanUser(row)
}

func GetUserByID(db *sql.DB, id string) (*User, error) {
	row := db.QueryRow(`SELECT id, username, password_hash, COALESCE(avatar_url, ''), role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.AvatarURL, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func UpdateAvatar(db *sql.DB, userID, avatarURL string) error {
	_, err := db.Exec(`UPDATE users SET avatar_url = ? WHERE id = ?`, avatarURL, userID)
	return err
}

// ListAvatars returns user_id -> avatar_url for the given ids. Users
// without an avatar map to an empty string.
func ListAvatars(db *sql.DB, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(`SELECT id, COALESCE(avatar_url, '') FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	urls := map[string]string{}
	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, err
		}
		urls[id] = url
	}
	return urls, rows.Err()
}
