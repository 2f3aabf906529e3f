package columns

import "github.com/emberline/stockroom/internal/records"

// StockExpandColumn is the stock column that grows with the view.
const StockExpandColumn = 2

// StockSchema returns the stock viewer columns. Category and classification
// indexes render through the supplied label lists.
func StockSchema(categories, classifications []string) (*Schema, error) {
	return NewSchema(records.StockItem,
		Column{Label: "SKU", Field: records.SKU, Format: ZeroPad(6), Width: 50},
		Column{Label: "Product ID", Field: records.ProductID, Width: 70},
		Column{Label: "Description", Field: records.Description, Width: 235},
		Column{Label: "Category", Field: records.Category, Format: Lookup(categories), Width: 70},
		Column{Label: "Classification", Field: records.Classification, Format: Lookup(classifications), Width: 85},
		Column{Label: "Unit Cost", Field: records.UnitCost, Format: Money("£"), Width: 65},
		Column{Label: "Unit Weight", Field: records.UnitWeight, Format: Fixed(2, "kg"), Width: 80},
		Column{Label: "NEC Weight", Field: records.NECWeight, Format: Fixed(2, "kg"), Width: 80},
		Column{Label: "Calibre", Field: records.Calibre, Format: Suffix("mm"), Width: 75},
		Column{Label: "Duration", Field: records.Duration, Format: Suffix("s"), Width: 60},
		Column{Label: "Low Noise", Field: records.LowNoise, Format: YesNo, Width: 70},
	)
}

// ShowSchema returns the show list columns.
func ShowSchema() (*Schema, error) {
	return NewSchema(records.Show,
		Column{Label: "ID", Field: records.ShowID, Format: ZeroPad(6), Width: 50},
		Column{Label: "Title", Field: records.ShowTitle, Width: 150},
		Column{Label: "Description", Field: records.ShowDescription, Width: 235},
		Column{Label: "Supervisor", Field: records.Supervisor, Width: 100},
		Column{Label: "Date", Field: records.DateTime, Format: DateTime(CTime), Width: 160},
		Column{Label: "Complete", Field: records.Complete, Format: YesNo, Width: 70},
	)
}
