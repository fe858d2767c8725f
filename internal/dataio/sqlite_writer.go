package dataio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

type sqliteWriterArgs struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

// factorRecord is one output row. The factor columns vary per workflow, so
// they are stored as a JSON document rather than a fixed schema; NaN cells
// become JSON nulls.
type factorRecord struct {
	ID     uint           `gorm:"primaryKey;autoIncrement"`
	Symbol string         `gorm:"index"`
	Time   time.Time      `gorm:"index"`
	Values datatypes.JSON `gorm:"type:TEXT"`
}

// WriteSQLite persists the assembled factor table into a sqlite database,
// replacing the target table's previous contents so a re-run is idempotent.
func WriteSQLite(ctx context.Context, table *series.Table, raw map[string]any) error {
	a := sqliteWriterArgs{Table: "factors"}
	if err := args.Decode(raw, &a); err != nil {
		return err
	}
	if a.Path == "" {
		return fmt.Errorf("sqlite writer requires path")
	}
	if dir := filepath.Dir(a.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", a.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	db = db.WithContext(ctx)
	if err := db.Table(a.Table).AutoMigrate(&factorRecord{}); err != nil {
		return err
	}
	if err := db.Table(a.Table).Where("1 = 1").Delete(&factorRecord{}).Error; err != nil {
		return err
	}

	cols := table.Columns()
	records := make([]factorRecord, 0, table.Len())
	for i, ts := range table.Times() {
		doc := make(map[string]any, len(cols))
		for _, name := range cols {
			vals, _ := table.Column(name)
			if math.IsNaN(vals[i]) {
				doc[name] = nil
			} else {
				doc[name] = vals[i]
			}
		}
		buf, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		rec := factorRecord{Time: ts.UTC(), Values: datatypes.JSON(buf)}
		if syms := table.Symbols(); syms != nil {
			rec.Symbol = syms[i]
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}
	return db.Table(a.Table).CreateInBatches(records, 500).Error
}
