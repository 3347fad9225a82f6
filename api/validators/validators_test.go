package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func requireValidation(t *testing.T, err error) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	return typed
}

func TestDecodeJSONBodyReportsFieldErrorsByJSONName(t *testing.T) {
	var dest addItemBody
	err := DecodeJSONBody(jsonRequest(`{"product_id":"nope","quantity":0}`), &dest)
	typed := requireValidation(t, err)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be a valid id", details["product_id"])
	require.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	var dest addItemBody
	requireValidation(t, DecodeJSON(jsonRequest(`{"product_id":"x","price":"0.01"}`), &dest))
	requireValidation(t, DecodeJSON(jsonRequest(`{"product_id":"x"}{"product_id":"y"}`), &dest))
}

func TestDecodeJSONRequiresBody(t *testing.T) {
	var dest addItemBody
	typed := requireValidation(t, DecodeJSON(httptest.NewRequest(http.MethodPost, "/", nil), &dest))
	require.Equal(t, "request body is required", typed.Message())

	typed = requireValidation(t, DecodeJSON(jsonRequest(""), &dest))
	require.Equal(t, "request body is required", typed.Message())
}

func TestDecodeJSONCapsBodySize(t *testing.T) {
	var dest map[string]string
	huge := `{"notes":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	typed := requireValidation(t, DecodeJSON(jsonRequest(huge), &dest))
	require.Equal(t, "request body too large", typed.Message())
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=500&in_stock=yes&min_price=-1&max_price=12.50&category=Fiction,%20Poetry&category=&category=History", nil)

	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	requireValidation(t, err)
	page, err := ParseQueryInt(req, "page", 1, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page)

	_, err = ParseQueryBool(req, "in_stock")
	requireValidation(t, err)

	_, err = ParseQueryDecimal(req, "min_price")
	requireValidation(t, err)
	maxPrice, err := ParseQueryDecimal(req, "max_price")
	require.NoError(t, err)
	require.Equal(t, "12.5", maxPrice.String())
	none, err := ParseQueryDecimal(req, "absent")
	require.NoError(t, err)
	require.Nil(t, none)

	require.Equal(t, []string{"Fiction", "Poetry", "History"}, ParseQueryList(req, "category", 40))
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "Jane Austen", SanitizeString("  Jane \t\n Austen ", 0))
	require.Equal(t, "Gabriel García", SanitizeString("Gabriel García Márquez", 14))
	require.Equal(t, "", SanitizeString("\x00\x07", 10))
}
