// Package inventory persists stock items, shows and the facet choice lists
// on gorm, and adapts them to the record and edit-session types.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/emberline/stockroom/internal/editing"
	"github.com/emberline/stockroom/internal/records"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound = errors.New("inventory: item not found")
	ErrShowNotFound = errors.New("inventory: show not found")
	ErrWrongShape   = errors.New("inventory: wrong record shape")

	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opStoreNew       = "inventory.store.new"
	opAllItems       = "inventory.all_items"
	opItem           = "inventory.item"
	opAddItem        = "inventory.add_item"
	opUpdateItem     = "inventory.update_item"
	opShows          = "inventory.shows"
	opShow           = "inventory.show"
	opAddShow        = "inventory.add_show"
	opUpdateShow     = "inventory.update_show"
	opCategories     = "inventory.categories"
	opClassification = "inventory.classifications"
)

// StoreError carries an operation.reason code around the underlying cause.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func (e *StoreError) Code() string {
	return e.code
}

func newStoreError(operation, reason string, cause error) error {
	return &StoreError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// StoreConfig describes the dependencies of the store.
type StoreConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Store is the persistence collaborator for stock and shows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore constructs the store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{db: cfg.Database, logger: logger}, nil
}

// AllItems returns every stock item in sku order.
func (s *Store) AllItems(ctx context.Context) ([]*records.Record, error) {
	var items []Item
	if err := s.db.WithContext(ctx).Order("sku ASC").Find(&items).Error; err != nil {
		s.logError(opAllItems, "select_failed", err)
		return nil, newStoreError(opAllItems, "select_failed", err)
	}
	result := make([]*records.Record, len(items))
	for i, item := range items {
		result[i] = item.record()
	}
	return result, nil
}

// Item returns the stock item with sku, or nil when there is none.
func (s *Store) Item(ctx context.Context, sku int64) (*records.Record, error) {
	var item Item
	err := s.db.WithContext(ctx).First(&item, sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opItem, "select_failed", err, zap.Int64("sku", sku))
		return nil, newStoreError(opItem, "select_failed", err)
	}
	return item.record(), nil
}

// AddItem stores a new stock item and returns its sku. An unassigned
// identity lets the database pick the sku.
func (s *Store) AddItem(ctx context.Context, record *records.Record) (int64, error) {
	item, err := itemFromRecord(record)
	if err != nil {
		return 0, newStoreError(opAddItem, "wrong_shape", err)
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		s.logError(opAddItem, "insert_failed", err)
		return 0, newStoreError(opAddItem, "insert_failed", err)
	}
	s.logger.Info("stock item added", zap.Int64("sku", item.SKU))
	return item.SKU, nil
}

// UpdateItem overwrites every column of an existing stock item.
func (s *Store) UpdateItem(ctx context.Context, record *records.Record) error {
	item, err := itemFromRecord(record)
	if err != nil {
		return newStoreError(opUpdateItem, "wrong_shape", err)
	}
	if item.SKU == 0 {
		return newStoreError(opUpdateItem, "not_found", ErrItemNotFound)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureExists(tx, &Item{}, "sku", item.SKU, opUpdateItem, ErrItemNotFound); err != nil {
			return err
		}
		if err := tx.Save(&item).Error; err != nil {
			s.logError(opUpdateItem, "save_failed", err, zap.Int64("sku", item.SKU))
			return newStoreError(opUpdateItem, "save_failed", err)
		}
		return nil
	})
}

// Shows returns shows in date order, skipping completed ones unless
// includeComplete is set.
func (s *Store) Shows(ctx context.Context, includeComplete bool) ([]*records.Record, error) {
	query := s.db.WithContext(ctx).Order("date_time ASC").Order("show_id ASC")
	if !includeComplete {
		query = query.Where("complete IS NULL OR complete = ?", false)
	}
	var shows []Show
	if err := query.Find(&shows).Error; err != nil {
		s.logError(opShows, "select_failed", err)
		return nil, newStoreError(opShows, "select_failed", err)
	}
	result := make([]*records.Record, len(shows))
	for i, show := range shows {
		result[i] = show.record()
	}
	return result, nil
}

// Show returns the show with id, or nil when there is none.
func (s *Store) Show(ctx context.Context, id int64) (*records.Record, error) {
	var show Show
	err := s.db.WithContext(ctx).First(&show, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opShow, "select_failed", err, zap.Int64("show_id", id))
		return nil, newStoreError(opShow, "select_failed", err)
	}
	return show.record(), nil
}

// AddShow stores a new show and returns its id.
func (s *Store) AddShow(ctx context.Context, record *records.Record) (int64, error) {
	show, err := showFromRecord(record)
	if err != nil {
		return 0, newStoreError(opAddShow, "wrong_shape", err)
	}
	if err := s.db.WithContext(ctx).Create(&show).Error; err != nil {
		s.logError(opAddShow, "insert_failed", err)
		return 0, newStoreError(opAddShow, "insert_failed", err)
	}
	s.logger.Info("show added", zap.Int64("show_id", show.ShowID))
	return show.ShowID, nil
}

// UpdateShow overwrites every column of an existing show.
func (s *Store) UpdateShow(ctx context.Context, record *records.Record) error {
	show, err := showFromRecord(record)
	if err != nil {
		return newStoreError(opUpdateShow, "wrong_shape", err)
	}
	if show.ShowID == 0 {
		return newStoreError(opUpdateShow, "not_found", ErrShowNotFound)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureExists(tx, &Show{}, "show_id", show.ShowID, opUpdateShow, ErrShowNotFound); err != nil {
			return err
		}
		if err := tx.Save(&show).Error; err != nil {
			s.logError(opUpdateShow, "save_failed", err, zap.Int64("show_id", show.ShowID))
			return newStoreError(opUpdateShow, "save_failed", err)
		}
		return nil
	})
}

// Categories returns category names by ordinal. The last entry is the blank
// choice.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	var rows []Category
	if err := s.db.WithContext(ctx).Order("ordinal ASC").Find(&rows).Error; err != nil {
		s.logError(opCategories, "select_failed", err)
		return nil, newStoreError(opCategories, "select_failed", err)
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	return names, nil
}

// Classifications returns classification names by ordinal. The last entry
// is the blank choice.
func (s *Store) Classifications(ctx context.Context) ([]string, error) {
	var rows []Classification
	if err := s.db.WithContext(ctx).Order("ordinal ASC").Find(&rows).Error; err != nil {
		s.logError(opClassification, "select_failed", err)
		return nil, newStoreError(opClassification, "select_failed", err)
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	return names, nil
}

// ItemPersister adapts the store to edit sessions over stock items.
func (s *Store) ItemPersister() editing.Persister {
	return editing.PersisterFuncs{CreateFunc: s.AddItem, UpdateFunc: s.UpdateItem}
}

// ShowPersister adapts the store to edit sessions over shows.
func (s *Store) ShowPersister() editing.Persister {
	return editing.PersisterFuncs{CreateFunc: s.AddShow, UpdateFunc: s.UpdateShow}
}

func (s *Store) ensureExists(tx *gorm.DB, model interface{}, column string, id int64, operation string, missing error) error {
	var count int64
	if err := tx.Model(model).Where(column+" = ?", id).Count(&count).Error; err != nil {
		s.logError(operation, "count_failed", err, zap.Int64(column, id))
		return newStoreError(operation, "count_failed", err)
	}
	if count == 0 {
		return newStoreError(operation, "not_found", missing)
	}
	return nil
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("inventory store error", attrs...)
}
