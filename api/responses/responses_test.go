package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessMessage(rec, http.StatusCreated, map[string]int{"n": 1}, "Order created successfully")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"Order created successfully","data":{"n":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})
	assert.JSONEq(t, `{"success":true,"data":{"hello":"world"}}`, rec.Body.String())
}

func TestWriteSuccessEmitsDecimalsAsNumbers(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]decimal.Decimal{"totalPrice": decimal.RequireFromString("76.00")})

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, `{"totalPrice":76}`, string(raw["data"]))
}

func TestWriteSuccessUnencodablePayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), decodeError(t, rec).Error.Code)
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "bad input", body.Message)
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	assert.NotNil(t, body.Error.Details)
}

func TestWriteErrorDomainCodes(t *testing.T) {
	cases := map[error]int{
		pkgerrors.New(pkgerrors.CodeEmptyOrder, "No order items"):                  http.StatusBadRequest,
		pkgerrors.New(pkgerrors.CodeProductNotFound, "Product x not found"):        http.StatusNotFound,
		pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for a"): http.StatusBadRequest,
		pkgerrors.New(pkgerrors.CodeOrderNotFound, "Order not found"):              http.StatusNotFound,
	}
	for err, status := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, err)
		assert.Equal(t, status, rec.Code, err.Error())
		assert.Equal(t, pkgerrors.As(err).Message(), decodeError(t, rec).Message)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	for _, err := range []error{
		errors.New("boom"),
		nil,
		pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "redis unreachable"),
	} {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), logg, rec, err)
		assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
		body := decodeError(t, rec)
		assert.NotContains(t, body.Message, "boom")
		assert.NotContains(t, body.Message, "redis")
		assert.Nil(t, body.Error.Details)
	}
	assert.Contains(t, buf.String(), "request.error")
	assert.Contains(t, buf.String(), "dial tcp")
}
