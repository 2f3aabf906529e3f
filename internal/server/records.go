package server

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/columns"
	"github.com/emberline/stockroom/internal/editing"
	"github.com/emberline/stockroom/internal/filtering"
	"github.com/emberline/stockroom/internal/inventory"
	"github.com/emberline/stockroom/internal/listing"
	"github.com/emberline/stockroom/internal/records"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recordKind binds one record shape to its storage and edit policy.
type recordKind struct {
	name      string
	shape     *records.Shape
	load      func(ctx context.Context, id int64) (*records.Record, error)
	policy    func(ctx context.Context) (editing.Policy, error)
	persister editing.Persister
}

func (h *httpHandler) itemKind() recordKind {
	return recordKind{
		name:  "item",
		shape: records.StockItem,
		load:  h.inventory.Item,
		policy: func(ctx context.Context) (editing.Policy, error) {
			categories, classifications, err := h.choiceLists(ctx)
			if err != nil {
				return editing.Policy{}, err
			}
			return editing.StockPolicy(categories, classifications), nil
		},
		persister: h.inventory.ItemPersister(),
	}
}

func (h *httpHandler) showKind() recordKind {
	return recordKind{
		name:  "show",
		shape: records.Show,
		load:  h.inventory.Show,
		policy: func(context.Context) (editing.Policy, error) {
			return editing.ShowPolicy(), nil
		},
		persister: h.inventory.ShowPersister(),
	}
}

func (h *httpHandler) choiceLists(ctx context.Context) ([]string, []string, error) {
	categories, err := h.inventory.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	classifications, err := h.inventory.Classifications(ctx)
	if err != nil {
		return nil, nil, err
	}
	return categories, classifications, nil
}

type rowPayload struct {
	ID    int64    `json:"id"`
	Cells []string `json:"cells"`
}

type listResponsePayload struct {
	Columns []string     `json:"columns"`
	Widths  []int        `json:"widths"`
	Rows    []rowPayload `json:"rows"`
	Total   int          `json:"total"`
}

func (h *httpHandler) handleListItems(c *gin.Context) {
	ctx := c.Request.Context()
	categories, classifications, err := h.choiceLists(ctx)
	if err != nil {
		h.requestLogger(c).Error("failed to load choice lists", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	schema, err := columns.StockSchema(categories, classifications)
	if err != nil {
		h.requestLogger(c).Error("failed to build stock schema", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	state, ok := stockFilterState(c, len(categories), len(classifications))
	if !ok {
		return
	}
	items, err := h.inventory.AllItems(ctx)
	if err != nil {
		h.requestLogger(c).Error("failed to load items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	h.respondList(c, listing.Config{
		Schema:              schema,
		Profile:             filtering.StockProfile,
		CategoryCount:       len(categories),
		ClassificationCount: len(classifications),
	}, items, state, columns.StockExpandColumn)
}

func (h *httpHandler) handleListShows(c *gin.Context) {
	ctx := c.Request.Context()
	schema, err := columns.ShowSchema()
	if err != nil {
		h.requestLogger(c).Error("failed to build show schema", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	showClosed, err := strconv.ParseBool(c.DefaultQuery("show_closed", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	shows, err := h.inventory.Shows(ctx, true)
	if err != nil {
		h.requestLogger(c).Error("failed to load shows", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	state := filtering.State{Query: c.Query("q"), ShowHidden: showClosed}
	h.respondList(c, listing.Config{Schema: schema, Profile: filtering.ShowProfile}, shows, state, 2)
}

func (h *httpHandler) respondList(c *gin.Context, cfg listing.Config, source []*records.Record, state filtering.State, expand int) {
	model, err := listing.New(cfg)
	if err != nil {
		h.requestLogger(c).Error("failed to build view model", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	if err := model.Load(source); err != nil && !errors.Is(err, filtering.ErrInvalidFilter) {
		h.requestLogger(c).Error("failed to load view model", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	if err := model.RefreshFilter(state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_filter", "message": err.Error()})
		return
	}

	widths := cfg.Schema.Widths()
	if width, err := strconv.Atoi(c.Query("width")); err == nil {
		widths = cfg.Schema.FitWidths(width, expand)
	}
	response := listResponsePayload{
		Columns: cfg.Schema.Labels(),
		Widths:  widths,
		Rows:    make([]rowPayload, 0, model.VisibleCount()),
		Total:   model.Len(),
	}
	for row := range model.VisibleRows() {
		id, _ := row.Identity.Int64()
		response.Rows = append(response.Rows, rowPayload{ID: id, Cells: row.Cells})
	}
	c.JSON(http.StatusOK, response)
}

// stockFilterState reads q, category, classification and show_hidden.
// Absent facet parameters select every entry.
func stockFilterState(c *gin.Context, categoryCount, classificationCount int) (filtering.State, bool) {
	state := filtering.State{
		Query:           c.Query("q"),
		Categories:      filtering.FullIndexSet(categoryCount),
		Classifications: filtering.FullIndexSet(classificationCount),
	}
	var err error
	if values, ok := c.GetQueryArray("category"); ok {
		if state.Categories, err = parseIndexSet(values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return filtering.State{}, false
		}
	}
	if values, ok := c.GetQueryArray("classification"); ok {
		if state.Classifications, err = parseIndexSet(values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return filtering.State{}, false
		}
	}
	if state.ShowHidden, err = strconv.ParseBool(c.DefaultQuery("show_hidden", "false")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return filtering.State{}, false
	}
	return state, true
}

func parseIndexSet(values []string) (filtering.IndexSet, error) {
	set := filtering.NewIndexSet()
	for _, value := range values {
		if value == "" {
			continue
		}
		index, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		set[index] = struct{}{}
	}
	return set, nil
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func (h *httpHandler) handleGetRecord(kind recordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		record, err := kind.load(c.Request.Context(), id)
		if err != nil {
			h.requestLogger(c).Error("failed to load record", zap.String("kind", kind.name), zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load_failed"})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

type fieldErrorPayload struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// handleCommit runs an edit session over the submitted fields. Update
// requests start from the stored record, so omitted fields keep their value.
func (h *httpHandler) handleCommit(kind recordKind, update bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var baseline *records.Record
		if update {
			id, ok := parseID(c)
			if !ok {
				return
			}
			stored, err := kind.load(ctx, id)
			if err != nil {
				h.requestLogger(c).Error("failed to load record", zap.String("kind", kind.name), zap.Int64("id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "load_failed"})
				return
			}
			if stored == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			baseline = stored
		}

		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}

		policy, err := kind.policy(ctx)
		if err != nil {
			h.requestLogger(c).Error("failed to build edit policy", zap.String("kind", kind.name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "commit_failed"})
			return
		}
		session, err := editing.Load(policy, baseline)
		if err != nil {
			h.requestLogger(c).Error("failed to start edit session", zap.String("kind", kind.name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "commit_failed"})
			return
		}
		if !applyFields(c, session, kind.shape, payload) {
			return
		}

		id, err := session.Commit(ctx, requestGate(c), kind.persister)
		if err != nil {
			h.respondCommitError(c, kind, err)
			return
		}
		status := http.StatusOK
		if !update {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"id": id, "record": session.Baseline()})
	}
}

// applyFields writes payload fields in name order. The identity field is
// owned by the path and the store, so it is skipped.
func applyFields(c *gin.Context, session *editing.Session, shape *records.Shape, payload map[string]any) bool {
	for _, name := range slices.Sorted(maps.Keys(payload)) {
		field := records.Field(name)
		if field == shape.Identity() {
			continue
		}
		kind, err := shape.Kind(field)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown_field", "field": name})
			return false
		}
		value, err := records.Decode(kind, payload[name])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_value", "field": name})
			return false
		}
		if err := session.SetField(field, value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_value", "field": name})
			return false
		}
	}
	return true
}

func (h *httpHandler) respondCommitError(c *gin.Context, kind recordKind, err error) {
	var validation *editing.ValidationError
	switch {
	case errors.As(err, &validation):
		fields := make([]fieldErrorPayload, len(validation.Fields))
		for i, failure := range validation.Fields {
			fields[i] = fieldErrorPayload{Field: failure.Field.String(), Reason: failure.Reason}
		}
		first := validation.First()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   first.Field.String(),
			"reason":  first.Reason,
			"summary": validation.Summary(),
			"fields":  fields,
		})
	case errors.Is(err, inventory.ErrItemNotFound), errors.Is(err, inventory.ErrShowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.As(err, new(*auth.AuthorizationError)):
		h.respondAuthorization(c, err)
	default:
		h.requestLogger(c).Error("failed to commit record", zap.String("kind", kind.name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "commit_failed"})
	}
}

func (h *httpHandler) handleUpcoming(c *gin.Context) {
	shows, err := h.inventory.Shows(c.Request.Context(), false)
	if err != nil {
		h.requestLogger(c).Error("failed to load shows", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upcoming_failed"})
		return
	}
	entries := inventory.Upcoming(shows)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "text": inventory.UpcomingText(entries)})
}
