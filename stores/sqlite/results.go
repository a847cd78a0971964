// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package sqlite

import (
	"database/sql"
	"errors"

	"github.com/curtisslone/esp/internal/findings"
)

// SaveScanResult persists result and every finding it carries inside a
// single transaction, so a crash mid-write never leaves a scan_results
// row with a partial set of findings.
func (db *DB) SaveScanResult(result findings.ScanResult) error {
	tx, err := db.db.BeginTx(db.ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(db.ctx,
		`INSERT INTO scan_results (scan_id, correlation_id, pass_percentage, status) VALUES (?, ?, ?, ?)`,
		result.ScanID, result.CorrelationID, result.PassPercentage, string(result.Status))
	if err != nil {
		return err
	}

	for _, f := range result.Findings {
		_, err = tx.ExecContext(db.ctx,
			`INSERT INTO compliance_findings (id, scan_id, ctn_type, field_path, status, severity, expected, actual, message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, result.ScanID, f.CtnType, f.FieldPath, string(f.Status), string(f.Severity),
			nullableJSON(f.Expected), nullableJSON(f.Actual), f.Message)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// GetScanResult reloads a scan and its findings by scan id.
func (db *DB) GetScanResult(scanID string) (findings.ScanResult, error) {
	var result findings.ScanResult
	row := db.db.QueryRowContext(db.ctx,
		`SELECT scan_id, correlation_id, pass_percentage, status FROM scan_results WHERE scan_id = ?`, scanID)
	var status string
	if err := row.Scan(&result.ScanID, &result.CorrelationID, &result.PassPercentage, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return findings.ScanResult{}, nil
		}
		return findings.ScanResult{}, err
	}
	result.Status = findings.ComplianceStatus(status)

	rows, err := db.db.QueryContext(db.ctx,
		`SELECT id, ctn_type, field_path, status, severity, expected, actual, message
		 FROM compliance_findings WHERE scan_id = ? ORDER BY rowid`, scanID)
	if err != nil {
		return findings.ScanResult{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var f findings.ComplianceFinding
		var fieldPath, expected, actual, message sql.NullString
		var statusStr, severityStr string
		if err := rows.Scan(&f.ID, &f.CtnType, &fieldPath, &statusStr, &severityStr, &expected, &actual, &message); err != nil {
			return findings.ScanResult{}, err
		}
		f.FieldPath = fieldPath.String
		f.Status = findings.Status(statusStr)
		f.Severity = findings.Severity(severityStr)
		f.Expected = []byte(expected.String)
		f.Actual = []byte(actual.String)
		f.Message = message.String
		result.Findings = append(result.Findings, f)
	}
	return result, rows.Err()
}

// ListScanIDsByCorrelationID returns every scan_id recorded under
// correlationID, most recent first.
func (db *DB) ListScanIDsByCorrelationID(correlationID string) ([]string, error) {
	rows, err := db.db.QueryContext(db.ctx,
		`SELECT scan_id FROM scan_results WHERE correlation_id = ? ORDER BY created_at DESC`, correlationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
