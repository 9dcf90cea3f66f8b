package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// LoadMedicines ingests a CSV medicine catalog into the medicines table.
// Columns: name, generic_name, unit, reorder_level, unit_price. Rows whose
// name already exists are skipped so reruns are harmless.
func LoadMedicines(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		logrus.Warnf("unable to load medicine catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		logrus.Warnf("unable to read medicine header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		logrus.Warnf("unable to start medicine seed transaction: %v", err)
		return
	}

	existsStmt, err := tx.Preparex(`SELECT EXISTS(SELECT 1 FROM medicines WHERE name = ?)`)
	if err != nil {
		logrus.Warnf("unable to prepare medicine lookup: %v", err)
		_ = tx.Rollback()
		return
	}
	defer existsStmt.Close()

	insertStmt, err := tx.Preparex(`INSERT INTO medicines (name, generic_name, unit, reorder_level, unit_price)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		logrus.Warnf("unable to prepare medicine insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer insertStmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.Warnf("unable to read medicine row: %v", err)
			continue
		}
		if len(record) < 3 {
			continue
		}
		name := strings.TrimSpace(record[0])
		generic := strings.TrimSpace(record[1])
		unit := strings.TrimSpace(record[2])
		if name == "" || unit == "" {
			continue
		}

		reorderLevel := 0
		if len(record) > 3 {
			if parsed, err := strconv.Atoi(strings.TrimSpace(record[3])); err == nil && parsed >= 0 {
				reorderLevel = parsed
			}
		}
		unitPrice := 0.0
		if len(record) > 4 {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64); err == nil && parsed >= 0 {
				unitPrice = parsed
			}
		}

		var exists bool
		if err := existsStmt.Get(&exists, name); err != nil || exists {
			continue
		}

		var genericPtr *string
		if generic != "" {
			genericPtr = &generic
		}
		if _, err := insertStmt.Exec(name, genericPtr, unit, reorderLevel, unitPrice); err != nil {
			logrus.Warnf("unable to insert medicine %s: %v", name, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		logrus.Warnf("unable to commit medicine seed: %v", err)
	} else {
		logrus.Infof("seeded medicine catalog with %d rows", rows)
	}
}
