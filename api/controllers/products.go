package controllers

import (
	"net/http"

	"github.com/northwind-labs/storefront/api/responses"
	"github.com/northwind-labs/storefront/api/validators"
	"github.com/northwind-labs/storefront/internal/products"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/pagination"
)

const (
	maxSearchLength   = 100
	maxCategoryLength = 50
)

// ProductList serves the public catalog with filters, sorting and pagination.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		input, err := parseProductListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseProductListInput(r *http.Request) (products.ListInput, error) {
	params, err := validators.ParsePagination(r, pagination.DefaultLimit)
	if err != nil {
		return products.ListInput{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "minPrice")
	if err != nil {
		return products.ListInput{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "maxPrice")
	if err != nil {
		return products.ListInput{}, err
	}
	query := r.URL.Query()
	sort, err := enums.ParseProductSort(query.Get("sortBy"))
	if err != nil {
		return products.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sortBy").
			WithDetails(map[string]any{"field": "sortBy"})
	}
	return products.ListInput{
		Filters: products.ListFilters{
			Category: validators.SanitizeString(query.Get("category"), maxCategoryLength),
			Search:   validators.SanitizeString(query.Get("search"), maxSearchLength),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
			Sort:     sort,
		},
		Pagination: params,
	}, nil
}

func ProductCategories(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id", pkgerrors.CodeProductNotFound, "Product not found")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product": product})
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		var body products.CreateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, map[string]any{"product": product}, "Product created successfully")
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id", pkgerrors.CodeProductNotFound, "Product not found")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body products.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, map[string]any{"product": product}, "Product updated successfully")
	}
}

// ProductDelete soft-deletes a product by marking it inactive.
func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id", pkgerrors.CodeProductNotFound, "Product not found")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, nil, "Product deleted successfully")
	}
}
