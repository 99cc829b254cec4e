package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/quotebuilder-backend/api/responses"
	"github.com/angelmondragon/quotebuilder-backend/api/validators"
	"github.com/angelmondragon/quotebuilder-backend/internal/editor"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
)

const (
	sessionIDParam = "sessionId"
	itemIDParam    = "itemId"
)

type loadRequest struct {
	QuotationID *int64 `json:"quotationId" validate:"omitempty,gt=0"`
	TemplateID  *int64 `json:"templateId" validate:"omitempty,gt=0"`
}

func (req loadRequest) input() editor.LoadInput {
	return editor.LoadInput{QuotationID: req.QuotationID, TemplateID: req.TemplateID}
}

type fieldRequest struct {
	Path  string `json:"path" validate:"required"`
	Value any    `json:"value"`
}

type itemFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=description quantity unitPrice productId"`
	Value any    `json:"value"`
}

type applyProductRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// OpenEditorSession starts a session on a stored quotation, a template or a
// blank document. A failed load still creates the session; it is returned in
// the load_failed state so the client can retry.
func OpenEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loadRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Open(r.Context(), payload.input())
		writeLoaded(w, r, logg, sess, err, http.StatusCreated)
	}
}

// LoadEditorSession reloads the session document, also used to retry after a
// failed load.
func LoadEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loadRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Load(r.Context(), chi.URLParam(r, sessionIDParam), payload.input())
		writeLoaded(w, r, logg, sess, err, http.StatusOK)
	}
}

func writeLoaded(w http.ResponseWriter, r *http.Request, logg *logger.Logger, sess *editor.Session, err error, status int) {
	if sess == nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if err != nil && logg != nil {
		ctx := logg.WithSessionID(r.Context(), sess.ID)
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "editor.load_failed")
	}
	responses.WriteSuccessStatus(w, status, sess)
}

func GetEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Get(r.Context(), chi.URLParam(r, sessionIDParam))
		writeSession(w, r, logg, sess, err)
	}
}

func CloseEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Close(r.Context(), chi.URLParam(r, sessionIDParam)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func UpdateEditorField(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload fieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.UpdateField(r.Context(), chi.URLParam(r, sessionIDParam), payload.Path, payload.Value)
		writeSession(w, r, logg, sess, err)
	}
}

func AddEditorItem(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.AddItem(r.Context(), chi.URLParam(r, sessionIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

// ReplaceEditorItem overwrites an item; its total is recomputed server-side.
func ReplaceEditorItem(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.UpdateItem(r.Context(), chi.URLParam(r, sessionIDParam), payload.lineItem(itemID))
		writeSession(w, r, logg, sess, err)
	}
}

func PatchEditorItem(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload itemFieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.UpdateItemField(r.Context(), chi.URLParam(r, sessionIDParam), itemID, payload.Field, payload.Value)
		writeSession(w, r, logg, sess, err)
	}
}

func DeleteEditorItem(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.DeleteItem(r.Context(), chi.URLParam(r, sessionIDParam), itemID)
		writeSession(w, r, logg, sess, err)
	}
}

func ApplyEditorProduct(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload applyProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.ApplyProduct(r.Context(), chi.URLParam(r, sessionIDParam), itemID, payload.ProductID)
		writeSession(w, r, logg, sess, err)
	}
}

// SearchEditorProducts is the debounced product lookup. A request overtaken
// by a newer one from the same session answers SUPERSEDED.
func SearchEditorProducts(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.SearchProducts(r.Context(), chi.URLParam(r, sessionIDParam), validators.SearchQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ValidateEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Validate(r.Context(), chi.URLParam(r, sessionIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SaveEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Save(r.Context(), chi.URLParam(r, sessionIDParam))
		writeSession(w, r, logg, sess, err)
	}
}

func ExportEditorSession(svc editor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := parseFormat(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Export(r.Context(), chi.URLParam(r, sessionIDParam), format)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeOutput(w, out)
	}
}

func writeSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger, sess *editor.Session, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, sess)
}

func parseItemID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, itemIDParam))
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+itemIDParam).WithDetails(map[string]any{"field": itemIDParam})
	}
	return id, nil
}
