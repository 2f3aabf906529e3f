package database

import (
	"time"

	"github.com/emberline/stockroom/internal/inventory"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationSeedCategories      = "2026-10-01_seed_categories"
	migrationSeedClassifications = "2026-10-01_seed_classifications"
)

// DefaultCategories and DefaultClassifications seed empty choice tables.
// Each list ends with the blank choice that marks an unassigned facet.
var (
	DefaultCategories      = []string{"Fireworks", "Pyrotechnics", "Smoke", "Accessories", ""}
	DefaultClassifications = []string{"1.1G", "1.2G", "1.3G", "1.4G", "1.4S", ""}
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedCategories, apply: seedCategories},
		{name: migrationSeedClassifications, apply: seedClassifications},
	}

	for _, migration := range migrations {
		var record migrationRecord
		result := db.Where("name = ?", migration.name).Limit(1).Find(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			continue
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// seedCategories leaves a table that already has entries alone.
func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&inventory.Category{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	rows := make([]inventory.Category, len(DefaultCategories))
	for ordinal, name := range DefaultCategories {
		rows[ordinal] = inventory.Category{Ordinal: int64(ordinal), Name: name}
	}
	return db.Create(&rows).Error
}

func seedClassifications(db *gorm.DB) error {
	var count int64
	if err := db.Model(&inventory.Classification{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	rows := make([]inventory.Classification, len(DefaultClassifications))
	for ordinal, name := range DefaultClassifications {
		rows[ordinal] = inventory.Classification{Ordinal: int64(ordinal), Name: name}
	}
	return db.Create(&rows).Error
}
