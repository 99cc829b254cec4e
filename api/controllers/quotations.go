package controllers

import (
	"net/http"

	"github.com/angelmondragon/quotebuilder-backend/api/responses"
	"github.com/angelmondragon/quotebuilder-backend/api/validators"
	"github.com/angelmondragon/quotebuilder-backend/internal/export"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/validation"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
)

const quotationIDParam = "quotationId"

// ListQuotations returns one page of quotations in editing shape.
func ListQuotations(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), quotations.ListInput{
			Query:      validators.SearchQuery(r),
			Pagination: pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, quotationIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, q)
	}
}

// CreateQuotation stores a new quotation. Any id in the body is ignored.
func CreateQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quotationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), payload.quotation())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func UpdateQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, quotationIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quotationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), id, payload.quotation())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeleteQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, quotationIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ValidateQuotation runs the aggregate validation on a posted document. The
// result is returned as data whether or not the document is valid.
func ValidateQuotation(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quotationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, validation.Quotation(payload.quotation()))
	}
}

// ExportQuotation renders a stored quotation as html, pdf or xlsx.
func ExportQuotation(svc quotations.Service, renderer *export.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, quotationIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		format, err := parseFormat(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := renderer.Render(r.Context(), format, *q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeOutput(w, out)
	}
}

func parseFormat(r *http.Request) (enums.ExportFormat, error) {
	format, err := enums.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported export format").
			WithDetails(map[string]string{"format": "must be one of html, pdf, xlsx"})
	}
	return format, nil
}

func writeOutput(w http.ResponseWriter, out *export.Output) {
	responses.WriteAttachment(w, out.ContentType, out.Filename, out.Body)
}
