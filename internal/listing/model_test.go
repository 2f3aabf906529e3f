package listing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/emberline/stockroom/internal/columns"
	"github.com/emberline/stockroom/internal/filtering"
	"github.com/emberline/stockroom/internal/records"
)

var (
	testCategories      = []string{"Fireworks", "Pyrotechnics", ""}
	testClassifications = []string{"1.3G", "1.4G", ""}
)

func newStockModel(t *testing.T) *Model {
	t.Helper()
	schema, err := columns.StockSchema(testCategories, testClassifications)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	model, err := New(Config{
		Schema:              schema,
		Profile:             filtering.StockProfile,
		CategoryCount:       len(testCategories),
		ClassificationCount: len(testClassifications),
	})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return model
}

func item(t *testing.T, sku int64, description string, category int64, hidden int64) *records.Record {
	t.Helper()
	record := records.StockItem.New()
	for field, value := range map[records.Field]records.Value{
		records.SKU:            records.Int(sku),
		records.Description:    records.String(description),
		records.Category:       records.Int(category),
		records.Classification: records.Int(0),
		records.Hidden:         records.Int(hidden),
	} {
		if err := record.Set(field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	return record
}

func loadedModel(t *testing.T) *Model {
	t.Helper()
	model := newStockModel(t)
	err := model.Load([]*records.Record{
		item(t, 1, "Comet Cake", 0, 0),
		item(t, 2, "Mine", 1, 0),
		item(t, 3, "Roman Candle", 0, records.HiddenYes),
		item(t, 12, "Fountain", 1, 0),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return model
}

func visibleSKUs(model *Model) []string {
	var skus []string
	for row := range model.VisibleRows() {
		skus = append(skus, row.Cells[0])
	}
	return skus
}

func TestLoadIncludesEverythingVisibleByDefault(t *testing.T) {
	model := loadedModel(t)
	if got := model.Inclusion(); !reflect.DeepEqual(got, []bool{true, true, false, true}) {
		t.Fatalf("unexpected inclusion: %v", got)
	}
	if got := visibleSKUs(model); !reflect.DeepEqual(got, []string{"000001", "000002", "000012"}) {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestRefreshFilterIsIdempotent(t *testing.T) {
	model := loadedModel(t)
	state := model.State()
	state.Query = "o"
	if err := model.RefreshFilter(state); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	first := model.Inclusion()
	if err := model.RefreshFilter(state); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !reflect.DeepEqual(first, model.Inclusion()) {
		t.Fatalf("refresh should be idempotent")
	}
}

func TestVisibleRowsIsRestartable(t *testing.T) {
	model := loadedModel(t)
	first := visibleSKUs(model)
	second := visibleSKUs(model)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected the same rows twice, got %v and %v", first, second)
	}
}

func TestInvalidQueryKeepsLastGoodInclusion(t *testing.T) {
	model := loadedModel(t)
	before := model.Inclusion()
	err := model.SetQuery("[")
	if !errors.Is(err, filtering.ErrInvalidFilter) {
		t.Fatalf("expected invalid filter error, got %v", err)
	}
	if !reflect.DeepEqual(before, model.Inclusion()) {
		t.Fatalf("inclusion should be unchanged after an invalid pattern")
	}
	if model.FilterError() == nil {
		t.Fatalf("expected filter error to be retained")
	}
	if err := model.SetQuery("mine"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.FilterError() != nil {
		t.Fatalf("filter error should clear after a good refresh")
	}
	if got := visibleSKUs(model); !reflect.DeepEqual(got, []string{"000002"}) {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestLoadWithInvalidQueryIncludesNothing(t *testing.T) {
	model := newStockModel(t)
	_ = model.SetQuery("(")
	err := model.Load([]*records.Record{item(t, 1, "a", 0, 0)})
	if !errors.Is(err, filtering.ErrInvalidFilter) {
		t.Fatalf("expected invalid filter error, got %v", err)
	}
	if got := model.Inclusion(); !reflect.DeepEqual(got, []bool{false}) {
		t.Fatalf("inclusion must stay aligned with records, got %v", got)
	}
}

func TestClearAndSelectAllFacets(t *testing.T) {
	model := loadedModel(t)
	if err := model.ClearAllFacets(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if model.VisibleCount() != 0 {
		t.Fatalf("expected no rows after clearing facets, got %d", model.VisibleCount())
	}
	if err := model.ToggleCategory(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := model.ToggleClassification(0); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := visibleSKUs(model); !reflect.DeepEqual(got, []string{"000002", "000012"}) {
		t.Fatalf("unexpected rows: %v", got)
	}
	if err := model.SelectAllFacets(); err != nil {
		t.Fatalf("select all: %v", err)
	}
	if err := model.SetShowHidden(true); err != nil {
		t.Fatalf("show hidden: %v", err)
	}
	if model.VisibleCount() != 4 {
		t.Fatalf("expected every row, got %d", model.VisibleCount())
	}
}

func TestLoadClonesRecords(t *testing.T) {
	model := newStockModel(t)
	source := item(t, 1, "Comet Cake", 0, 0)
	if err := model.Load([]*records.Record{source}); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = source.Set(records.Description, records.String("changed"))
	stored, _ := model.Record(0)
	if text, _ := stored.Lookup(records.Description).Str(); text != "Comet Cake" {
		t.Fatalf("model must not observe caller mutations, got %q", text)
	}
}

func TestLoadRejectsOtherShapes(t *testing.T) {
	model := newStockModel(t)
	if err := model.Load([]*records.Record{records.Show.New()}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
