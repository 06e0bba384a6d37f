package database

import (
	"fmt"

	"go.uber.org/zap"
)

// requiredColumns declares the columns the engine writes. The check runs
// once at startup and fails fast on a mismatch, instead of probing the
// schema with successively narrower write shapes at runtime.
var requiredColumns = map[string][]string{
	"time_entries": {
		"id", "tenant_id", "employee_id", "project_id", "work_date",
		"premium_category", "hours_total", "approval_status",
		"approved_by", "approved_at", "billed", "invoice_id",
	},
	"employees": {
		"id", "tenant_id", "name", "hourly_rate", "classification", "role",
	},
	"projects": {
		"id", "tenant_id", "name", "hourly_rate",
	},
	"invoices": {
		"id", "tenant_id", "project_id", "external_ref", "status", "total_amount",
	},
	"invoice_lines": {
		"id", "invoice_id", "time_entry_id", "description", "quantity",
		"unit_rate", "amount", "sort_order",
	},
}

// VerifySchema checks that every table and column the engine depends on is
// present. Run after migrations, before serving.
func (db *DB) VerifySchema() error {
	for table, columns := range requiredColumns {
		present, err := db.tableColumns(table)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", table, err)
		}
		if len(present) == 0 {
			return fmt.Errorf("required table %s is missing", table)
		}
		for _, col := range columns {
			if !present[col] {
				return fmt.Errorf("table %s is missing required column %s", table, col)
			}
		}
	}

	db.logger.Info("Schema verification passed", zap.Int("tables", len(requiredColumns)))
	return nil
}

func (db *DB) tableColumns(table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
