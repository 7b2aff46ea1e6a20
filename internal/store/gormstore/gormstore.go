// Package gormstore is the SQLite-backed alternative to the JSON file
// store. The full signal document is kept as a JSON payload column so the
// schema never drifts from the wire model; indexed columns exist only for
// lookup and retention queries.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"claws/internal/store"
	"claws/internal/types"
)

type signalModel struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	SignalID    string         `gorm:"column:signal_id;index"`
	Symbol      string         `gorm:"column:symbol;index"`
	StrategyKey string         `gorm:"column:strategy_key;index"`
	Status      string         `gorm:"column:status;index"`
	ClosedAt    int64          `gorm:"column:closed_at"`
	Payload     datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAt   int64          `gorm:"column:created_at"`
	UpdatedAt   int64          `gorm:"column:updated_at"`
}

func (signalModel) TableName() string { return "signals" }

type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &store.PersistenceError{Op: "init", Err: fmt.Errorf("database path is required")}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &store.PersistenceError{Op: "init", Err: err}
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &store.PersistenceError{Op: "open", Err: err}
	}
	if err := db.AutoMigrate(&signalModel{}); err != nil {
		return nil, &store.PersistenceError{Op: "migrate", Err: err}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &store.PersistenceError{Op: "open", Err: err}
	}
	// WAL tolerates a reader alongside the writer, no more.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (store.State, error) {
	var st store.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		st, err = loadState(tx)
		return err
	})
	if err != nil {
		return store.State{}, &store.PersistenceError{Op: "load", Err: err}
	}
	return st, nil
}

// Update runs the load-merge-save cycle in one transaction. SQLite's write
// lock gives the mutual exclusion overlapping runs need.
func (s *Store) Update(ctx context.Context, fn func(*store.State) error) (store.State, error) {
	var result store.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := loadState(tx)
		if err != nil {
			return &store.PersistenceError{Op: "load", Err: err}
		}
		// fn errors roll the transaction back and surface as-is.
		if err := fn(&st); err != nil {
			return err
		}
		if err := saveState(tx, st); err != nil {
			return &store.PersistenceError{Op: "save", Err: err}
		}
		result = st
		return nil
	})
	if err != nil {
		return store.State{}, err
	}
	return result, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func loadState(tx *gorm.DB) (store.State, error) {
	var rows []signalModel
	if err := tx.Order("id asc").Find(&rows).Error; err != nil {
		return store.State{}, err
	}
	var st store.State
	for _, row := range rows {
		var sig types.Signal
		if err := json.Unmarshal(row.Payload, &sig); err != nil {
			return store.State{}, fmt.Errorf("decode signal %s: %w", row.SignalID, err)
		}
		if sig.Closed() {
			st.Closed = append(st.Closed, sig)
		} else {
			st.Active = append(st.Active, sig)
		}
	}
	return st, nil
}

// saveState replaces the whole table with the new state. The collections
// are small and bounded, so a full rewrite inside the transaction is
// simpler than per-row diffing and keeps row order equal to state order.
func saveState(tx *gorm.DB, st store.State) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&signalModel{}).Error; err != nil {
		return err
	}
	now := time.Now().Unix()
	write := func(sig types.Signal) error {
		payload, err := json.Marshal(sig)
		if err != nil {
			return err
		}
		var closedAt int64
		if sig.ClosedAt != nil {
			closedAt = sig.ClosedAt.Unix()
		}
		row := signalModel{
			SignalID:    sig.ID,
			Symbol:      sig.Symbol,
			StrategyKey: sig.StrategyKey,
			Status:      string(sig.Status),
			ClosedAt:    closedAt,
			Payload:     datatypes.JSON(payload),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Create(&row).Error
	}
	for _, sig := range st.Closed {
		if err := write(sig); err != nil {
			return err
		}
	}
	for _, sig := range st.Active {
		if err := write(sig); err != nil {
			return err
		}
	}
	return nil
}
