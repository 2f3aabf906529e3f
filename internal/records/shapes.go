package records

// Stock item fields.
const (
	SKU            Field = "sku"
	ProductID      Field = "product_id"
	Description    Field = "description"
	Category       Field = "category"
	Classification Field = "classification"
	UnitCost       Field = "unit_cost"
	UnitWeight     Field = "unit_weight"
	NECWeight      Field = "nec_weight"
	Calibre        Field = "calibre"
	CaseSize       Field = "case_size"
	CENo           Field = "ce_no"
	SerialNo       Field = "serial_no"
	Shots          Field = "shots"
	Duration       Field = "duration"
	Notes          Field = "notes"
	LowNoise       Field = "low_noise"
	PreviewLink    Field = "preview_link"
	HSENo          Field = "hse_no"
	Hidden         Field = "hidden"
	StockOnHand    Field = "stock_on_hand"
)

// Show fields.
const (
	ShowID          Field = "show_id"
	ShowTitle       Field = "show_title"
	ShowDescription Field = "show_description"
	Supervisor      Field = "supervisor"
	DateTime        Field = "date_time"
	Complete        Field = "complete"
)

// Values of the tri-state hidden field.
const (
	HiddenNo        int64 = 0
	HiddenYes       int64 = 1
	HiddenUndecided int64 = 2
)

// StockItem is the shape of an inventory line.
var StockItem = MustShape("stock_item", SKU,
	FieldSpec{Name: SKU, Kind: KindInt},
	FieldSpec{Name: ProductID, Kind: KindString},
	FieldSpec{Name: Description, Kind: KindString},
	FieldSpec{Name: Category, Kind: KindInt},
	FieldSpec{Name: Classification, Kind: KindInt},
	FieldSpec{Name: UnitCost, Kind: KindFloat},
	FieldSpec{Name: UnitWeight, Kind: KindFloat},
	FieldSpec{Name: NECWeight, Kind: KindFloat},
	FieldSpec{Name: Calibre, Kind: KindInt},
	FieldSpec{Name: CaseSize, Kind: KindInt},
	FieldSpec{Name: CENo, Kind: KindString},
	FieldSpec{Name: SerialNo, Kind: KindString},
	FieldSpec{Name: Shots, Kind: KindInt},
	FieldSpec{Name: Duration, Kind: KindInt},
	FieldSpec{Name: Notes, Kind: KindString},
	FieldSpec{Name: LowNoise, Kind: KindBool},
	FieldSpec{Name: PreviewLink, Kind: KindString},
	FieldSpec{Name: HSENo, Kind: KindString},
	FieldSpec{Name: Hidden, Kind: KindInt},
	FieldSpec{Name: StockOnHand, Kind: KindInt},
)

// Show is the shape of a scheduled event.
var Show = MustShape("show", ShowID,
	FieldSpec{Name: ShowID, Kind: KindInt},
	FieldSpec{Name: ShowTitle, Kind: KindString},
	FieldSpec{Name: ShowDescription, Kind: KindString},
	FieldSpec{Name: Supervisor, Kind: KindString},
	FieldSpec{Name: DateTime, Kind: KindTime},
	FieldSpec{Name: Complete, Kind: KindBool},
)

// IsHidden reports whether a stock record is explicitly hidden. Null and the
// undecided sentinel count as visible.
func IsHidden(record *Record) bool {
	value, ok := record.Lookup(Hidden).Int64()
	return ok && value == HiddenYes
}
