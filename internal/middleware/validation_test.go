package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"qty" validate:"omitempty,gte=1,lte=999"`
}

type signupRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestProperty_ValidQuantitiesPass(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("positive ids and quantities in range validate", prop.ForAll(
		func(id, qty int) bool {
			return ValidateRequest(&addItemRequest{ProductID: id, Quantity: qty}) == nil
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 999),
	))

	properties.Property("out of range quantities are reported on the qty field", prop.ForAll(
		func(qty int) bool {
			errs := FormatValidationErrors(ValidateRequest(&addItemRequest{ProductID: 1, Quantity: qty}))
			return len(errs) == 1 && errs[0].Field == "qty"
		},
		gen.OneGenOf(gen.IntRange(-100, -1), gen.IntRange(1000, 5000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrorsMessages(t *testing.T) {
	errs := FormatValidationErrors(ValidateRequest(&signupRequest{Email: "not-an-email"}))
	require.Len(t, errs, 2)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "This field is required", byField["name"])
	assert.Equal(t, "Invalid email format", byField["email"])
}

func TestFormatValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(assert.AnError))
	assert.Empty(t, FormatValidationErrors(nil))
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(`{"productId":3,"qty":2}`))
		var body addItemRequest
		require.NoError(t, DecodeAndValidate(req, &body))
		assert.Equal(t, addItemRequest{ProductID: 3, Quantity: 2}, body)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(`{"productId":3,"extra":true}`))
		var body addItemRequest
		assert.Error(t, DecodeAndValidate(req, &body))
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(`{"productId":`))
		var body addItemRequest
		assert.Error(t, DecodeAndValidate(req, &body))
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(""))
		var body addItemRequest
		assert.ErrorIs(t, DecodeAndValidate(req, &body), ErrEmptyBody)
	})

	t.Run("trailing data", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(`{"productId":3}{"productId":4}`))
		var body addItemRequest
		assert.Error(t, DecodeAndValidate(req, &body))
	})

	t.Run("oversized body", func(t *testing.T) {
		payload := `{"productId":3,"qty":1` + strings.Repeat(" ", MaxBodyBytes) + `}`
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(payload))
		var body addItemRequest
		assert.Error(t, DecodeAndValidate(req, &body))
	})

	t.Run("failed validation", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(`{"productId":0}`))
		var body addItemRequest
		err := DecodeAndValidate(req, &body)
		require.Error(t, err)
		errs := FormatValidationErrors(err)
		require.Len(t, errs, 1)
		assert.Equal(t, "productId", errs[0].Field)
	})
}

func TestMaxLengthMessage(t *testing.T) {
	type short struct {
		Name string `form:"name" validate:"max=3"`
	}
	errs := FormatValidationErrors(ValidateRequest(&short{Name: "abcd"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "Must be at most 3 characters", errs[0].Message)
}
