package breadspec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/errortracking"
	"github.com/bitechdev/BreadSpec/pkg/locale"
	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/metrics"
	"github.com/bitechdev/BreadSpec/pkg/plugins"
	"github.com/bitechdev/BreadSpec/pkg/record"
	"github.com/bitechdev/BreadSpec/pkg/validation"
)

// Route actions, the last segment of a route name
const (
	ActionBrowse = "browse"
	ActionRead   = "read"
	ActionEdit   = "edit"
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	defaultPerPage = 25
	maxPerPage     = 1000
	localeHeader   = "X-Locale"
)

// Handler serves the BREAD routes of every bread in the controller's store
type Handler struct {
	controller *Controller
	db         common.Database
	locales    []string
}

// NewHandler creates a handler. locales lists the locales a client may ask
// for; the controller's locale is always allowed.
func NewHandler(db common.Database, controller *Controller, locales []string) *Handler {
	def := controller.Env().Locale
	found := false
	for _, l := range locales {
		if l == def {
			found = true
			break
		}
	}
	if !found {
		locales = append([]string{def}, locales...)
	}
	return &Handler{
		controller: controller,
		db:         db,
		locales:    locales,
	}
}

func (h *Handler) Controller() *Controller {
	return h.controller
}

// GetDatabase returns the underlying database connection
func (h *Handler) GetDatabase() common.Database {
	return h.db
}

// RouteName builds <prefix>.<slug>.<action>
func (h *Handler) RouteName(slug, action string) string {
	return h.controller.Env().RouteNamePrefix + "." + slug + "." + action
}

// RegisterRoutes registers the six BREAD routes for every loaded bread under
// pathPrefix, e.g. "/admin".
func (h *Handler) RegisterRoutes(r common.Router, pathPrefix string) {
	pathPrefix = strings.TrimRight(pathPrefix, "/")
	for _, b := range h.controller.Env().Breads.All() {
		base := pathPrefix + "/" + b.Slug
		r.HandleFunc(base, h.Browse).Methods(http.MethodGet).Name(h.RouteName(b.Slug, ActionBrowse))
		r.HandleFunc(base, h.Add).Methods(http.MethodPost).Name(h.RouteName(b.Slug, ActionAdd))
		r.HandleFunc(base+"/{id}/edit", h.Edit).Methods(http.MethodGet).Name(h.RouteName(b.Slug, ActionEdit))
		r.HandleFunc(base+"/{id}", h.Read).Methods(http.MethodGet).Name(h.RouteName(b.Slug, ActionRead))
		r.HandleFunc(base+"/{id}", h.Update).Methods(http.MethodPut).Name(h.RouteName(b.Slug, ActionUpdate))
		r.HandleFunc(base+"/{id}", h.Delete).Methods(http.MethodDelete).Name(h.RouteName(b.Slug, ActionDelete))
		logger.Debug("Registered BREAD routes for %s at %s", b.Slug, base)
	}
}

// operation is the per-request state shared by every action
type operation struct {
	ctx    context.Context
	ctrl   *Controller
	bread  *bread.Bread
	action string
	status string
}

// begin resolves the bread and locale, then authenticates and authorizes.
// It writes the error response itself and returns nil on failure.
func (h *Handler) begin(w common.ResponseWriter, r common.Request, action string) *operation {
	ctrl := h.controller.WithLocale(h.requestLocale(r))

	b, err := ctrl.GetBread(r)
	if err != nil {
		h.sendError(r.Context(), w, http.StatusNotFound, "bread_not_found", "Bread not found", err)
		return nil
	}

	user, err := ctrl.AuthenticationPlugin().Authenticate(r.UnderlyingRequest())
	if err != nil {
		h.sendError(r.Context(), w, http.StatusUnauthorized, "unauthenticated", "Authentication required", err)
		metrics.GetProvider().RecordBreadOperation(b.Slug, action, "unauthenticated")
		return nil
	}
	ctx := plugins.WithUser(r.Context(), user)
	ctx = errortracking.WithTags(ctx, map[string]string{"bread": b.Slug, "action": action})

	if err := ctrl.Authorize(ctx, action, b); err != nil {
		h.sendError(ctx, w, http.StatusForbidden, "forbidden", "Not allowed to "+action+" "+b.NamePlural, err)
		metrics.GetProvider().RecordBreadOperation(b.Slug, action, "forbidden")
		return nil
	}

	w.SetHeader("Content-Language", ctrl.Env().Locale)
	return &operation{ctx: ctx, ctrl: ctrl, bread: b, action: action, status: "error"}
}

func (op *operation) finish() {
	metrics.GetProvider().RecordBreadOperation(op.bread.Slug, op.action, op.status)
}

// requestLocale honours X-Locale, then Accept-Language
func (h *Handler) requestLocale(r common.Request) string {
	def := h.controller.Env().Locale
	if requested := r.Header(localeHeader); requested != "" {
		for _, l := range h.locales {
			if l == requested {
				return l
			}
		}
	}
	return locale.Negotiate(r.Header("Accept-Language"), h.locales, def)
}

// Browse lists records of the list layout.
// Query parameters: global, filters (JSON object), order, direction, page, perpage.
func (h *Handler) Browse(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Browse")

	op := h.begin(w, r, ActionBrowse)
	if op == nil {
		return
	}
	defer op.finish()

	b := op.bread
	layout := b.ListLayout()
	if layout == nil {
		h.sendError(op.ctx, w, http.StatusNotFound, "layout_not_found", "Bread has no list layout", nil)
		return
	}

	filters, err := common.ParseFilters(r.QueryParam("filters"))
	if err != nil {
		h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_filters", "Invalid filters", err)
		return
	}

	page := cast.ToInt(r.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage := cast.ToInt(r.QueryParam("perpage"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total, err := h.db.NewSelect().Table(b.Table).Count(op.ctx)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "query_error", "Failed to count records", err)
		return
	}

	query, outcomes := op.ctrl.SearchQueryWithReport(h.db.NewSelect().Table(b.Table), b, layout, filters, r.QueryParam("global"))
	filtered, err := query.Count(op.ctx)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "query_error", "Failed to count records", err)
		return
	}

	if column := r.QueryParam("order"); column != "" {
		field := layout.Formfield(column)
		if field == nil || !field.Orderable || strings.Contains(column, ".") {
			h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_order", fmt.Sprintf("Cannot order by %s", column), nil)
			return
		}
		direction := "ASC"
		if strings.EqualFold(r.QueryParam("direction"), "desc") {
			direction = "DESC"
		}
		query = op.ctrl.OrderQuery(query, b, layout, column, direction)
	}

	offset := (page - 1) * perPage
	var rows []map[string]interface{}
	if err := query.Limit(perPage).Offset(offset).Scan(op.ctx, &rows); err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "query_error", "Failed to load records", err)
		return
	}

	records := make(record.Collection, 0, len(rows))
	for _, row := range rows {
		rec, err := op.ctrl.PrepareDataForBrowsing(op.ctx, h.newRecord(b, row), b, layout, ModeBrowse)
		if err != nil {
			h.sendError(op.ctx, w, http.StatusInternalServerError, "transform_error", "Failed to prepare records", err)
			return
		}
		records = append(records, rec)
	}
	op.ctrl.LoadAccessors(records, b)

	op.status = "success"
	h.sendResponse(w, http.StatusOK, records, &common.Metadata{
		Total:    int64(total),
		Count:    int64(len(records)),
		Filtered: int64(filtered),
		Limit:    perPage,
		Offset:   offset,
		Filters:  outcomes,
	})
}

// Read returns one record prepared with the view layout's Show
func (h *Handler) Read(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Read")
	h.single(w, r, ActionRead, ModeShow)
}

// Edit returns one record prepared with the view layout's Edit
func (h *Handler) Edit(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Edit")
	h.single(w, r, ActionEdit, ModeEdit)
}

func (h *Handler) single(w common.ResponseWriter, r common.Request, action string, mode Mode) {
	op := h.begin(w, r, action)
	if op == nil {
		return
	}
	defer op.finish()

	layout, rec, ok := h.load(w, r, op)
	if !ok {
		return
	}
	rec, err := op.ctrl.PrepareDataForBrowsing(op.ctx, rec, op.bread, layout, mode)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "transform_error", "Failed to prepare record", err)
		return
	}
	op.ctrl.LoadAccessors(rec, op.bread)

	op.status = "success"
	h.sendResponse(w, http.StatusOK, rec, nil)
}

// Add validates the "data" JSON against the view layout and inserts a record
func (h *Handler) Add(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Add")

	op := h.begin(w, r, ActionAdd)
	if op == nil {
		return
	}
	defer op.finish()

	b := op.bread
	layout := b.ViewLayout()
	if layout == nil {
		h.sendError(op.ctx, w, http.StatusNotFound, "layout_not_found", "Bread has no view layout", nil)
		return
	}

	input, ok := h.validInput(w, r, op, layout)
	if !ok {
		return
	}

	rec := b.Model().NewRecord(h.controller.Env().Breads.Models())
	rec, err := op.ctrl.PrepareDataForStoring(op.ctx, input, rec, b, layout, ModeStore)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_value", "Invalid value", err)
		return
	}

	res, err := h.db.NewInsert().Table(b.Table).Values(rec.Attributes()).Exec(op.ctx)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "insert_error", "Failed to create record", err)
		return
	}
	if !rec.Exists() {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			rec.Set(rec.PrimaryKey(), id)
		}
	}
	logger.Info("Created %s %v", b.NameSingular, rec.Key())

	op.status = "success"
	h.sendResponse(w, http.StatusCreated, map[string]interface{}{"id": rec.Key()}, nil)
}

// Update validates the "data" JSON and writes the changed record back
func (h *Handler) Update(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Update")

	op := h.begin(w, r, ActionUpdate)
	if op == nil {
		return
	}
	defer op.finish()

	b := op.bread
	layout, rec, ok := h.load(w, r, op)
	if !ok {
		return
	}

	input, ok := h.validInput(w, r, op, layout)
	if !ok {
		return
	}

	rec, err := op.ctrl.PrepareDataForUpdating(op.ctx, input, rec, b, layout)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_value", "Invalid value", err)
		return
	}

	values := rec.Attributes()
	delete(values, rec.PrimaryKey())
	if len(values) > 0 {
		_, err = h.db.NewUpdate().Table(b.Table).SetMap(values).Where(rec.PrimaryKey()+" = ?", rec.Key()).Exec(op.ctx)
		if err != nil {
			h.sendError(op.ctx, w, http.StatusInternalServerError, "update_error", "Failed to update record", err)
			return
		}
	}
	logger.Info("Updated %s %v", b.NameSingular, rec.Key())

	op.status = "success"
	h.sendResponse(w, http.StatusOK, map[string]interface{}{"id": rec.Key()}, nil)
}

// Delete removes one record
func (h *Handler) Delete(w common.ResponseWriter, r common.Request) {
	defer h.recoverPanic(w, r, "Delete")

	op := h.begin(w, r, ActionDelete)
	if op == nil {
		return
	}
	defer op.finish()

	b := op.bread
	model := b.Model()
	id := r.PathParam("id")
	res, err := h.db.NewDelete().Table(b.Table).Where(model.Key()+" = ?", id).Exec(op.ctx)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "delete_error", "Failed to delete record", err)
		return
	}
	if res.RowsAffected() == 0 {
		h.sendError(op.ctx, w, http.StatusNotFound, "record_not_found", fmt.Sprintf("%s %s not found", b.NameSingular, id), nil)
		return
	}
	logger.Info("Deleted %s %s", b.NameSingular, id)

	op.status = "success"
	h.sendResponse(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": res.RowsAffected()}, nil)
}

// load fetches the record named by the {id} path parameter along with the view layout
func (h *Handler) load(w common.ResponseWriter, r common.Request, op *operation) (*bread.Layout, *record.Record, bool) {
	b := op.bread
	layout := b.ViewLayout()
	if layout == nil {
		h.sendError(op.ctx, w, http.StatusNotFound, "layout_not_found", "Bread has no view layout", nil)
		return nil, nil, false
	}

	id := r.PathParam("id")
	var rows []map[string]interface{}
	err := h.db.NewSelect().Table(b.Table).Where(b.Model().Key()+" = ?", id).Limit(1).Scan(op.ctx, &rows)
	if err != nil {
		h.sendError(op.ctx, w, http.StatusInternalServerError, "query_error", "Failed to load record", err)
		return nil, nil, false
	}
	if len(rows) == 0 {
		h.sendError(op.ctx, w, http.StatusNotFound, "record_not_found", fmt.Sprintf("%s %s not found", b.NameSingular, id), nil)
		return nil, nil, false
	}
	return layout, h.newRecord(b, rows[0]), true
}

// validInput reads the "data" JSON and runs the layout's rules over it
func (h *Handler) validInput(w common.ResponseWriter, r common.Request, op *operation, layout *bread.Layout) (map[string]interface{}, bool) {
	input, err := op.ctrl.GetJSON(r, "data")
	if err != nil {
		var jsonErr *JSONInvalidError
		if errors.As(err, &jsonErr) {
			h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_json", jsonErr.Error(), map[string]interface{}{"json_error": jsonErr.Code})
			return nil, false
		}
		h.sendError(op.ctx, w, http.StatusBadRequest, "invalid_request", "Invalid request data", err)
		return nil, false
	}

	v := op.ctrl.Validator(layout, input)
	if v.Fails() {
		h.sendValidationError(w, v.Errors())
		return nil, false
	}
	return input, true
}

func (h *Handler) newRecord(b *bread.Bread, row map[string]interface{}) *record.Record {
	return record.FromMap(b.Table, b.Model().Key(), row).WithAccessors(h.controller.Env().Breads.Models())
}

func (h *Handler) recoverPanic(w common.ResponseWriter, r common.Request, method string) {
	if rcv := recover(); rcv != nil {
		err := logger.HandlePanicCtx(r.Context(), "breadspec.Handler."+method, rcv)
		h.sendError(r.Context(), w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("Internal server error in %s", method), err)
	}
}

func (h *Handler) sendResponse(w common.ResponseWriter, status int, data interface{}, metadata *common.Metadata) {
	w.SetHeader("Content-Type", "application/json")
	w.WriteHeader(status)
	err := w.WriteJSON(common.Response{
		Success:  true,
		Data:     data,
		Metadata: metadata,
	})
	if err != nil {
		logger.Error("Error sending response: %v", err)
	}
}

func (h *Handler) sendValidationError(w common.ResponseWriter, errs validation.Errors) {
	w.SetHeader("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	err := w.WriteJSON(common.Response{
		Success: false,
		Error: &common.APIError{
			Code:    "validation_failed",
			Message: "The given data was invalid",
			Details: errs,
		},
	})
	if err != nil {
		logger.Error("Error sending response: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, w common.ResponseWriter, status int, code, message string, details interface{}) {
	if status >= http.StatusInternalServerError {
		if err, ok := details.(error); ok {
			logger.ErrorCtx(ctx, err, "%s", message)
		} else {
			logger.Error("%s: %v", message, details)
		}
	}
	apiErr := &common.APIError{
		Code:    code,
		Message: message,
	}
	switch d := details.(type) {
	case nil:
	case error:
		apiErr.Detail = d.Error()
	default:
		apiErr.Details = d
	}

	w.SetHeader("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := w.WriteJSON(common.Response{Success: false, Error: apiErr}); err != nil {
		logger.Error("Error sending response: %v", err)
	}
}
