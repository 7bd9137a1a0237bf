package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindRegister(t *testing.T, body interface{}) error {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	var req RegisterRequest
	return c.ShouldBindJSON(&req)
}

func TestRegisterRequest_Valid(t *testing.T) {
	err := bindRegister(t, RegisterRequest{
		Document: "12345678-9",
		Name:     "Ana Silva",
		Email:    "ana@example.com",
		Phone:    "3001234567",
	})
	assert.NoError(t, err)
}

func TestRegisterRequest_RejectsUnsafeDocument(t *testing.T) {
	err := bindRegister(t, RegisterRequest{
		Document: "123'; DROP TABLE clients;--",
		Name:     "Ana",
		Email:    "ana@example.com",
		Phone:    "3001234567",
	})
	assert.Error(t, err)
}

func TestRegisterRequest_RejectsBadEmail(t *testing.T) {
	err := bindRegister(t, RegisterRequest{
		Document: "A1",
		Name:     "Ana",
		Email:    "not-an-email",
		Phone:    "3001234567",
	})
	assert.Error(t, err)
}

func TestConfirmPaymentRequest_TokenFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		token string
		ok    bool
	}{
		{"six digits", "042317", true},
		{"too short", "12345", false},
		{"too long", "1234567", false},
		{"letters", "12a456", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := ConfirmPaymentRequest{
				SessionID: "f47ac10b-58cc-4372-a567-0e02b2c3d479",
				Token:     tc.token,
				Amount:    10,
			}
			raw, err := json.Marshal(body)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/confirm-payment", bytes.NewReader(raw))
			c.Request.Header.Set("Content-Type", "application/json")

			var req ConfirmPaymentRequest
			err = c.ShouldBindJSON(&req)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConfirmPaymentRequest_RejectsNonUUIDSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	raw, err := json.Marshal(ConfirmPaymentRequest{
		SessionID: "not-a-uuid",
		Token:     "123456",
		Amount:    10,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/confirm-payment", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	var req ConfirmPaymentRequest
	assert.Error(t, c.ShouldBindJSON(&req))
}

func TestSanitizeStruct(t *testing.T) {
	req := RegisterRequest{
		Document: "  A1  ",
		Name:     "<script>alert(1)</script>",
		Email:    " ana@example.com ",
		Phone:    "3001234567",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "A1", req.Document)
	assert.NotContains(t, req.Name, "<script>")
	assert.Equal(t, "ana@example.com", req.Email)
}

func TestSanitizeStruct_NonPointerIsNoop(t *testing.T) {
	req := RegisterRequest{Document: " A1 "}
	SanitizeStruct(req)
	assert.Equal(t, " A1 ", req.Document)
}
