package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalcatalog "github.com/calebmoran/printworks-backend/internal/catalog"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// ListProducts returns the storefront catalog with optional filters.
func ListProducts(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := buildListInput(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns one product by id.
func GetProduct(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListMaterials returns the material spec sheet for the storefront.
func ListMaterials(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		materials, err := svc.ListMaterials(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, materials)
	}
}

// CompareMaterials renders a side-by-side comparison of up to a handful of materials.
func CompareMaterials(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var ids []uuid.UUID
		for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material id"))
				return
			}
			ids = append(ids, id)
		}

		comparison, err := svc.CompareMaterials(r.Context(), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, comparison)
	}
}

type createProductRequest struct {
	SKU                string  `json:"sku" validate:"required"`
	Name               string  `json:"name" validate:"required"`
	Description        *string `json:"description,omitempty"`
	Category           string  `json:"category" validate:"required"`
	Material           string  `json:"material" validate:"required"`
	Unit               string  `json:"unit" validate:"required"`
	BasePrice          string  `json:"base_price" validate:"required"`
	MOQ                int     `json:"moq" validate:"required,gt=0"`
	IsActive           *bool   `json:"is_active,omitempty"`
	ArtworkTemplateURL *string `json:"artwork_template_url,omitempty"`
}

// AdminCreateProduct adds a product to the catalog.
func AdminCreateProduct(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}
		material, err := enums.ParseProductMaterial(body.Material)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material"))
			return
		}
		unit, err := enums.ParseProductUnit(body.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}
		basePrice, err := decimal.NewFromString(strings.TrimSpace(body.BasePrice))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price"))
			return
		}

		input := internalcatalog.CreateProductInput{
			SKU:                strings.TrimSpace(body.SKU),
			Name:               strings.TrimSpace(body.Name),
			Description:        body.Description,
			Category:           category,
			Material:           material,
			Unit:               unit,
			BasePrice:          basePrice,
			MOQ:                body.MOQ,
			IsActive:           true,
			ArtworkTemplateURL: body.ArtworkTemplateURL,
		}
		if body.IsActive != nil {
			input.IsActive = *body.IsActive
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	Category           *string `json:"category,omitempty"`
	Material           *string `json:"material,omitempty"`
	Unit               *string `json:"unit,omitempty"`
	BasePrice          *string `json:"base_price,omitempty"`
	MOQ                *int    `json:"moq,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	ArtworkTemplateURL *string `json:"artwork_template_url,omitempty"`
}

// AdminUpdateProduct patches catalog fields on one product.
func AdminUpdateProduct(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalcatalog.UpdateProductInput{
			Name:               body.Name,
			Description:        body.Description,
			MOQ:                body.MOQ,
			IsActive:           body.IsActive,
			ArtworkTemplateURL: body.ArtworkTemplateURL,
		}

		if body.Category != nil {
			category, err := enums.ParseProductCategory(*body.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}
		if body.Material != nil {
			material, err := enums.ParseProductMaterial(*body.Material)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material"))
				return
			}
			input.Material = &material
		}
		if body.Unit != nil {
			unit, err := enums.ParseProductUnit(*body.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}
		if body.BasePrice != nil {
			basePrice, err := decimal.NewFromString(strings.TrimSpace(*body.BasePrice))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price"))
				return
			}
			input.BasePrice = &basePrice
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeactivateProduct removes a product from sale without deleting it.
func AdminDeactivateProduct(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func buildListInput(r *http.Request, includeInactive bool) (internalcatalog.ListProductsInput, error) {
	var input internalcatalog.ListProductsInput

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("material")); raw != "" {
		material, err := enums.ParseProductMaterial(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material")
		}
		input.Material = &material
	}
	input.Search = strings.TrimSpace(r.URL.Query().Get("q"))
	input.IncludeInactive = includeInactive

	if includeInactive {
		if raw := strings.TrimSpace(r.URL.Query().Get("include_inactive")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid include_inactive")
			}
			input.IncludeInactive = value
		}
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return input, err
	}
	input.Pagination = pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	return input, nil
}

// AdminListProducts mirrors the public listing but can include inactive rows.
func AdminListProducts(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := buildListInput(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseProductID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "productId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return parsed, nil
}
