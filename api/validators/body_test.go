package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
)

type addItemPayload struct {
	Name     string `json:"name" validate:"required"`
	Price    int    `json:"price" validate:"min=0"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Cheese pizza","price":250,"quantity":2}`))
	var payload addItemPayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	require.Equal(t, "Cheese pizza", payload.Name)
	require.Equal(t, 2, payload.Quantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Coke","quantity":1,"bogus":true}`))
	var payload addItemPayload
	err := DecodeJSONBody(req, &payload)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"price":100,"quantity":0}`))
	var payload addItemPayload
	err := DecodeJSONBody(req, &payload)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok, "details: %+v", pkgerrors.As(err).Details())
	require.Contains(t, details, "name")
	require.Contains(t, details, "quantity")
}

func TestParseOrderTypeParam(t *testing.T) {
	t.Parallel()

	orderType, err := ParseOrderTypeParam("dine-in")
	require.NoError(t, err)
	require.Equal(t, "dine-in", orderType.String())

	_, err = ParseOrderTypeParam("drive-thru")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
