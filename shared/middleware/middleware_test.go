package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eaglebank/transaction-api/shared/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testSecret = []byte("test-secret")

type envelopeBody struct {
	Data     []any             `json:"data"`
	Metadata map[string]string `json:"metadata"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, Claims{
		UserID: "usr-001",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "valid token",
			header:         "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, time.Now().Add(time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Authorization header required",
		},
		{
			name:           "wrong scheme",
			header:         "Basic abc",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid authorization header format",
		},
		{
			name:           "expired token",
			header:         "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, time.Now().Add(-time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid or expired token",
		},
		{
			name:           "wrong secret",
			header:         "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, time.Now().Add(time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid or expired token",
		},
		{
			name:           "unexpected signing method",
			header:         "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, time.Now().Add(time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid or expired token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/secured", AuthMiddleware(testSecret), func(c *gin.Context) {
				userID, ok := GetUserID(c)
				assert.True(t, ok)
				c.String(http.StatusOK, userID)
			})

			req := httptest.NewRequest(http.MethodGet, "/secured", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "usr-001", w.Body.String())
				return
			}
			body := decodeEnvelope(t, w)
			assert.Equal(t, "401", body.Metadata["http_response"])
			assert.Equal(t, tt.expectedMsg, body.Metadata["error_message"])
			assert.Empty(t, body.Data)
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-id", w.Body.String())
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestID(), LoggingMiddleware(zap.New(core)))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/items/9", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/items/9", fields["path"])
	assert.Equal(t, "/items/:id", fields["route"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "500", body.Metadata["http_response"])
	assert.Equal(t, "Internal server error", body.Metadata["error_message"])
	assert.Equal(t, "v1", body.Metadata["api_version"])
	assert.Equal(t, 1, logs.Len())
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Amount   float64 `json:"amount" validate:"required,gt=0"`
		Currency string  `json:"currency" validate:"required,len=3"`
		Type     string  `json:"type" validate:"oneof=credit debit"`
	}

	assert.Nil(t, ValidateRequest(payload{Amount: 1, Currency: "USD", Type: "debit"}))

	errs := ValidateRequest(payload{Amount: -1, Currency: "US", Type: "gift"})
	require.Len(t, errs, 3)
	assert.Equal(t, "amount", errs[0].Field)
	assert.Equal(t, "gt", errs[0].Type)
	assert.Equal(t,
		"amount: Value must be greater than 0; currency: Value must be exactly 3 characters; type: Value must be one of: credit debit",
		FormatValidationErrors(errs),
	)
}

func TestValidateRequest_Decimals(t *testing.T) {
	type payload struct {
		Amount float64 `json:"amount" validate:"decimals=2"`
	}

	tests := []struct {
		amount float64
		valid  bool
	}{
		{amount: 10, valid: true},
		{amount: 0.1, valid: true},
		{amount: 12.34, valid: true},
		{amount: 9999999999999999.0, valid: true},
		{amount: 12.345, valid: false},
		{amount: 0.004, valid: false},
	}
	for _, tt := range tests {
		errs := ValidateRequest(payload{Amount: tt.amount})
		if tt.valid {
			assert.Nil(t, errs, "amount %v", tt.amount)
			continue
		}
		require.Len(t, errs, 1, "amount %v", tt.amount)
		assert.Equal(t, "amount: Value must have at most 2 decimal places", FormatValidationErrors(errs))
	}
}
