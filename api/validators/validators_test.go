package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/pagination"
)

type priceBody struct {
	Name  string          `json:"name" validate:"required,max=5"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

type nestedBody struct {
	Lines []struct {
		Quantity int `json:"quantity" validate:"gte=1"`
	} `json:"lines" validate:"dive"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details %T", typed.Details())
	return details
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var body priceBody
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"name":"mug","price":"12.50"}`), &body))
	assert.True(t, body.Price.Equal(decimal.RequireFromString("12.50")))
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var body priceBody
	err := DecodeJSONBody(jsonRequest(`{"name":"too long","price":-1}`), &body)
	details := validationDetails(t, err)
	assert.Equal(t, "must be at most 5", details["name"])
	assert.Equal(t, "must be greater than or equal to 0", details["price"])
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	var body nestedBody
	err := DecodeJSONBody(jsonRequest(`{"lines":[{"quantity":1},{"quantity":0}]}`), &body)
	details := validationDetails(t, err)
	assert.Contains(t, details, "lines[1].quantity")
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndBadJSON(t *testing.T) {
	var body priceBody
	assert.True(t, pkgerrors.Is(DecodeJSONBody(jsonRequest(`{"name":"a","extra":1}`), &body), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.Is(DecodeJSONBody(jsonRequest(`{"name":`), &body), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyTreatsEmptyBodyAsEmptyObject(t *testing.T) {
	var body struct {
		ID string `json:"id" validate:"omitempty,max=10"`
	}
	require.NoError(t, DecodeJSONBody(jsonRequest(``), &body))
	assert.Empty(t, body.ID)
}

func TestDecodeJSONBodyRejectsOversizedAndTrailingInput(t *testing.T) {
	var body priceBody
	huge := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	err := DecodeJSONBody(jsonRequest(huge), &body)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "exceeds")

	err = DecodeJSONBody(jsonRequest(`{"name":"a"} {"name":"b"}`), &body)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyNamesMistypedField(t *testing.T) {
	var body priceBody
	details := validationDetails(t, DecodeJSONBody(jsonRequest(`{"name":7}`), &body))
	assert.Equal(t, "has the wrong type", details["name"])
}

func TestValidateUserRoleTag(t *testing.T) {
	type roleBody struct {
		Role string `json:"role" validate:"omitempty,user_role"`
	}
	require.NoError(t, Validate(&roleBody{Role: "Admin"}))
	require.NoError(t, Validate(&roleBody{}))
	details := validationDetails(t, Validate(&roleBody{Role: "owner"}))
	assert.Equal(t, "must be one of [user admin]", details["role"])
}

func TestParsePaginationClampsLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=2&limit=500", nil)
	params, err := ParsePagination(r, pagination.DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Page: 2, Limit: pagination.MaxLimit}, params)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	params, err = ParsePagination(r, pagination.DefaultAdminLimit)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Page: 1, Limit: 10}, params)

	r = httptest.NewRequest(http.MethodGet, "/?page=abc", nil)
	_, err = ParsePagination(r, pagination.DefaultLimit)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?minPrice=10.5&maxPrice=x&neg=-1", nil)

	value, err := ParseQueryDecimal(r, "minPrice")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "10.5", value.String())

	value, err = ParseQueryDecimal(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = ParseQueryDecimal(r, "maxPrice")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseQueryDecimal(r, "neg")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "id", pkgerrors.CodeOrderNotFound, "Order not found")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(withParam("not-a-uuid"), "id", pkgerrors.CodeOrderNotFound, "Order not found")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeOrderNotFound, typed.Code())
	assert.Equal(t, "Order not found", typed.Message())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeString("  h\x00éllo\n ", 0))
	assert.Equal(t, "hé", SanitizeString("héllo", 2))
}
