// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package sqlite persists findings.ScanResult values: one row per scan,
// one row per finding, queryable by scan id or correlation id.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/curtisslone/esp/cerrs"
)

// DB wraps a single sqlite connection plus the context every query runs
// under.
type DB struct {
	db  *sql.DB
	ctx context.Context
}

// CreateStore creates a new results database at path. It is an error if
// the database already exists unless force is true, in which case the
// old file is removed and recreated.
func CreateStore(path string, force bool, ctx context.Context) (*DB, error) {
	log.Printf("store: %q\n", path)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(absPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else {
		if !force {
			return nil, cerrs.ErrDatabaseExists
		}
		log.Printf("store: removing %s\n", absPath)
		if err := os.Remove(absPath); err != nil {
			return nil, err
		}
	}

	log.Printf("store: creating %s\n", absPath)
	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, err
	}
	return &DB{db: db, ctx: ctx}, nil
}

// OpenStore opens an existing results database. It is an error if path
// does not already exist.
func OpenStore(path string, ctx context.Context) (*DB, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, err
	}
	log.Printf("store: opening %s\n", absPath)
	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, err
	}
	return &DB{db: db, ctx: ctx}, nil
}

// Close closes the underlying connection. Safe to call on a nil *DB.
func (db *DB) Close() error {
	var err error
	if db != nil && db.db != nil {
		err = db.db.Close()
		db.db = nil
	}
	return err
}
