package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	// SQLite allows a single writer; one pooled connection keeps every
	// statement on it.
	db.SetMaxOpenConns(1)
	return db
}
