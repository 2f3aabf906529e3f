package inventory

import "time"

// Item stores one stock line. Nullable columns map to pointer fields.
type Item struct {
	SKU            int64     `gorm:"column:sku;primaryKey;autoIncrement"`
	ProductID      *string   `gorm:"column:product_id;size:64"`
	Description    *string   `gorm:"column:description;size:512"`
	Category       *int64    `gorm:"column:category;index"`
	Classification *int64    `gorm:"column:classification;index"`
	UnitCost       *float64  `gorm:"column:unit_cost"`
	UnitWeight     *float64  `gorm:"column:unit_weight"`
	NECWeight      *float64  `gorm:"column:nec_weight"`
	Calibre        *int64    `gorm:"column:calibre"`
	CaseSize       *int64    `gorm:"column:case_size"`
	CENo           *string   `gorm:"column:ce_no;size:64"`
	SerialNo       *string   `gorm:"column:serial_no;size:64"`
	Shots          *int64    `gorm:"column:shots"`
	Duration       *int64    `gorm:"column:duration"`
	Notes          *string   `gorm:"column:notes"`
	LowNoise       *bool     `gorm:"column:low_noise"`
	PreviewLink    *string   `gorm:"column:preview_link;size:512"`
	HSENo          *string   `gorm:"column:hse_no;size:64"`
	Hidden         *int64    `gorm:"column:hidden"`
	StockOnHand    *int64    `gorm:"column:stock_on_hand"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing stock items.
func (Item) TableName() string {
	return "stock_items"
}

// Show stores one scheduled event.
type Show struct {
	ShowID      int64      `gorm:"column:show_id;primaryKey;autoIncrement"`
	Title       *string    `gorm:"column:show_title;size:255"`
	Description *string    `gorm:"column:show_description"`
	Supervisor  *string    `gorm:"column:supervisor;size:190"`
	DateTime    *time.Time `gorm:"column:date_time;index"`
	Complete    *bool      `gorm:"column:complete;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing shows.
func (Show) TableName() string {
	return "shows"
}

// Category is one entry of the category choice list. Ordinal is the index
// stock items store.
type Category struct {
	Ordinal int64  `gorm:"column:ordinal;primaryKey;autoIncrement:false"`
	Name    string `gorm:"column:name;size:190;not null"`
}

// TableName exposes the table backing categories.
func (Category) TableName() string {
	return "categories"
}

// Classification is one entry of the classification choice list.
type Classification struct {
	Ordinal int64  `gorm:"column:ordinal;primaryKey;autoIncrement:false"`
	Name    string `gorm:"column:name;size:190;not null"`
}

// TableName exposes the table backing classifications.
func (Classification) TableName() string {
	return "classifications"
}

// Models lists every table this package owns, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Item{}, &Show{}, &Category{}, &Classification{}}
}
