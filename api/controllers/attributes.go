package controllers

import (
	"net/http"

	"github.com/angelmondragon/quotebuilder-backend/api/responses"
	"github.com/angelmondragon/quotebuilder-backend/api/validators"
	"github.com/angelmondragon/quotebuilder-backend/internal/attributes"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
)

const attributeIDParam = "attributeId"

type attributeRequest struct {
	Name           string `json:"name"`
	AttributeName  string `json:"attributeName" validate:"required"`
	DataType       string `json:"dataType"`
	AttributeValue string `json:"attributeValue"`
	ProductID      *int64 `json:"productId" validate:"omitempty,gt=0"`
	Tags           string `json:"tags"`
}

func (req attributeRequest) input() attributes.Input {
	return attributes.Input{
		Name:           req.Name,
		AttributeName:  req.AttributeName,
		DataType:       req.DataType,
		AttributeValue: req.AttributeValue,
		ProductID:      req.ProductID,
		Tags:           req.Tags,
	}
}

// ListAttributes filters by q and, optionally, productId.
func ListAttributes(svc attributes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), attributes.ListInput{
			Query:     validators.SearchQuery(r),
			ProductID: productID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

func GetAttribute(svc attributes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, attributeIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attr, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, attr)
	}
}

func CreateAttribute(svc attributes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload attributeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attr, err := svc.Create(r.Context(), payload.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, attr)
	}
}

func UpdateAttribute(svc attributes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, attributeIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload attributeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attr, err := svc.Update(r.Context(), id, payload.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, attr)
	}
}

func DeleteAttribute(svc attributes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, attributeIDParam)
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
