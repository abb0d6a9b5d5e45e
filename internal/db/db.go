package db

import (
	"database/sql"
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
	_ "github.com/mattn/go-sqlite3"

	"tidder/internal/auth"
	"tidder/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	sqlBytes, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return err
	}
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		return err
	}
	return nil
}

// Bootstrap creates the privileged account from config. An already
// existing username is fine; anything else is fatal to startup.
func Bootstrap(db *sql.DB, log logs.Log, adminUser, adminPass string, bcryptCost int) error {
	if adminUser == "" || adminPass == "" {
		log.Warnf("No admin credentials configured, skipping admin bootstrap")
		return nil
	}
	hash, err := auth.HashPassword(adminPass, bcryptCost)
	if err != nil {
		return err
	}
	_, err = models.CreateUser(db, adminUser, hash, "admin")
	if err == models.ErrDuplicateUsername {
		return nil
	}
	if err == nil {
		log.Infof("Admin account %q created", adminUser)
	}
	return err
}
