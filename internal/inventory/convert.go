package inventory

import (
	"fmt"
	"time"

	"github.com/emberline/stockroom/internal/records"
)

func stringValue(p *string) records.Value {
	if p == nil {
		return records.Null()
	}
	return records.String(*p)
}

func intValue(p *int64) records.Value {
	if p == nil {
		return records.Null()
	}
	return records.Int(*p)
}

func floatValue(p *float64) records.Value {
	if p == nil {
		return records.Null()
	}
	return records.Float(*p)
}

func boolValue(p *bool) records.Value {
	if p == nil {
		return records.Null()
	}
	return records.Bool(*p)
}

func timeValue(p *time.Time) records.Value {
	if p == nil {
		return records.Null()
	}
	return records.Time(*p)
}

func stringPtr(v records.Value) *string {
	s, ok := v.Str()
	if !ok {
		return nil
	}
	return &s
}

func intPtr(v records.Value) *int64 {
	i, ok := v.Int64()
	if !ok {
		return nil
	}
	return &i
}

func floatPtr(v records.Value) *float64 {
	f, ok := v.Float64()
	if !ok {
		return nil
	}
	return &f
}

func boolPtr(v records.Value) *bool {
	b, ok := v.Boolean()
	if !ok {
		return nil
	}
	return &b
}

func timePtr(v records.Value) *time.Time {
	t, ok := v.Timestamp()
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func mustSet(record *records.Record, field records.Field, value records.Value) {
	if err := record.Set(field, value); err != nil {
		// Column kinds mirror the shape declaration.
		panic(err)
	}
}

func (item Item) record() *records.Record {
	record := records.StockItem.New()
	mustSet(record, records.SKU, records.Int(item.SKU))
	mustSet(record, records.ProductID, stringValue(item.ProductID))
	mustSet(record, records.Description, stringValue(item.Description))
	mustSet(record, records.Category, intValue(item.Category))
	mustSet(record, records.Classification, intValue(item.Classification))
	mustSet(record, records.UnitCost, floatValue(item.UnitCost))
	mustSet(record, records.UnitWeight, floatValue(item.UnitWeight))
	mustSet(record, records.NECWeight, floatValue(item.NECWeight))
	mustSet(record, records.Calibre, intValue(item.Calibre))
	mustSet(record, records.CaseSize, intValue(item.CaseSize))
	mustSet(record, records.CENo, stringValue(item.CENo))
	mustSet(record, records.SerialNo, stringValue(item.SerialNo))
	mustSet(record, records.Shots, intValue(item.Shots))
	mustSet(record, records.Duration, intValue(item.Duration))
	mustSet(record, records.Notes, stringValue(item.Notes))
	mustSet(record, records.LowNoise, boolValue(item.LowNoise))
	mustSet(record, records.PreviewLink, stringValue(item.PreviewLink))
	mustSet(record, records.HSENo, stringValue(item.HSENo))
	mustSet(record, records.Hidden, intValue(item.Hidden))
	mustSet(record, records.StockOnHand, intValue(item.StockOnHand))
	return record
}

func itemFromRecord(record *records.Record) (Item, error) {
	if record == nil || record.Shape() != records.StockItem {
		return Item{}, fmt.Errorf("%w: expected a stock item", ErrWrongShape)
	}
	item := Item{
		ProductID:      stringPtr(record.Lookup(records.ProductID)),
		Description:    stringPtr(record.Lookup(records.Description)),
		Category:       intPtr(record.Lookup(records.Category)),
		Classification: intPtr(record.Lookup(records.Classification)),
		UnitCost:       floatPtr(record.Lookup(records.UnitCost)),
		UnitWeight:     floatPtr(record.Lookup(records.UnitWeight)),
		NECWeight:      floatPtr(record.Lookup(records.NECWeight)),
		Calibre:        intPtr(record.Lookup(records.Calibre)),
		CaseSize:       intPtr(record.Lookup(records.CaseSize)),
		CENo:           stringPtr(record.Lookup(records.CENo)),
		SerialNo:       stringPtr(record.Lookup(records.SerialNo)),
		Shots:          intPtr(record.Lookup(records.Shots)),
		Duration:       intPtr(record.Lookup(records.Duration)),
		Notes:          stringPtr(record.Lookup(records.Notes)),
		LowNoise:       boolPtr(record.Lookup(records.LowNoise)),
		PreviewLink:    stringPtr(record.Lookup(records.PreviewLink)),
		HSENo:          stringPtr(record.Lookup(records.HSENo)),
		Hidden:         intPtr(record.Lookup(records.Hidden)),
		StockOnHand:    intPtr(record.Lookup(records.StockOnHand)),
	}
	if !records.IsUnassigned(record.Identity()) {
		item.SKU, _ = record.ID()
	}
	return item, nil
}

func (show Show) record() *records.Record {
	record := records.Show.New()
	mustSet(record, records.ShowID, records.Int(show.ShowID))
	mustSet(record, records.ShowTitle, stringValue(show.Title))
	mustSet(record, records.ShowDescription, stringValue(show.Description))
	mustSet(record, records.Supervisor, stringValue(show.Supervisor))
	mustSet(record, records.DateTime, timeValue(show.DateTime))
	mustSet(record, records.Complete, boolValue(show.Complete))
	return record
}

func showFromRecord(record *records.Record) (Show, error) {
	if record == nil || record.Shape() != records.Show {
		return Show{}, fmt.Errorf("%w: expected a show", ErrWrongShape)
	}
	show := Show{
		Title:       stringPtr(record.Lookup(records.ShowTitle)),
		Description: stringPtr(record.Lookup(records.ShowDescription)),
		Supervisor:  stringPtr(record.Lookup(records.Supervisor)),
		DateTime:    timePtr(record.Lookup(records.DateTime)),
		Complete:    boolPtr(record.Lookup(records.Complete)),
	}
	if !records.IsUnassigned(record.Identity()) {
		show.ShowID, _ = record.ID()
	}
	return show, nil
}
