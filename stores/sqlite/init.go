// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package sqlite

// initialization functions

import (
	_ "embed"
	"errors"
	"log"

	"github.com/curtisslone/esp/cerrs"
)

//go:embed schema.sql
var schemaDDL string

// CreateSchema assumes the database already exists and creates every
// table/index the store needs, confirming foreign key enforcement is on
// first since compliance_findings' scan_id references depend on it.
func (db *DB) CreateSchema() error {
	if rslt, err := db.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.Printf("[sqldb] error: foreign keys are disabled\n")
		return cerrs.ErrForeignKeysDisabled
	} else if rslt == nil {
		log.Printf("[sqldb] error: foreign keys pragma failed\n")
		return cerrs.ErrPragmaReturnedNil
	}

	if _, err := db.db.Exec(schemaDDL); err != nil {
		log.Printf("[sqldb] failed to initialize schema\n")
		log.Printf("[sqldb] %v\n", err)
		return errors.Join(cerrs.ErrCreateSchema, err)
	}
	return nil
}
