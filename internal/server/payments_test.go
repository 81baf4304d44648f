package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/payline/internal/clock"
	"github.com/smallbiznis/payline/internal/config"
	"github.com/smallbiznis/payline/internal/payment/domain"
	"github.com/smallbiznis/payline/internal/payment/limit"
	paymentrepo "github.com/smallbiznis/payline/internal/payment/repository"
	paymentservice "github.com/smallbiznis/payline/internal/payment/service"
	"github.com/smallbiznis/payline/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := paymentservice.New(paymentservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)),
		Limits: config.StaticLimitsHolder(limit.DefaultCeiling),
		Repo:   paymentrepo.Provide(),
	})

	engine := gin.New()
	engine.Use(server.ErrorHandlingMiddleware())

	s := server.NewServer(server.Params{
		Engine:     engine,
		Cfg:        config.Config{Environment: "test"},
		DB:         db,
		Log:        zap.NewNop(),
		PaymentSvc: svc,
	})
	s.RegisterAPIRoutes()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreatePaymentEndpoint(t *testing.T) {
	engine := setupRouter(t)
	payerID := uuid.NewString()

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       payerID,
		"paymentSource": "PIX",
		"amount":        "100.50",
		"metadata":      gin.H{"order_ref": "ord_1"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, payerID, data["payerId"])
	assert.Equal(t, "PIX", data["paymentSource"])
	assert.Equal(t, "PENDING", data["status"])
	assert.NotEmpty(t, data["id"])
}

func TestCreatePaymentValidation(t *testing.T) {
	engine := setupRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"paymentSource": "PIX",
		"amount":        "10.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeError(t, w)
	assert.Equal(t, "validation_error", errBody["type"])

	w = doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       uuid.NewString(),
		"paymentSource": "PIX",
		"amount":        "0",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationErrorsNameRequestFields(t *testing.T) {
	engine := setupRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       uuid.NewString(),
		"paymentSource": "BOLETO",
		"amount":        "10.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeError(t, w)
	fields := errBody["errors"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "paymentSource", fields[0].(map[string]any)["field"])

	w = doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       "not-a-uuid",
		"paymentSource": "PIX",
		"amount":        "10.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields = decodeError(t, w)["errors"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "payerId", fields[0].(map[string]any)["field"])

	w = doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       uuid.NewString(),
		"paymentSource": "PIX",
		"amount":        "-1.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields = decodeError(t, w)["errors"].([]any)
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, "amount", field["field"])
	assert.Equal(t, "amount must be greater than zero", field["message"])
}

func TestCreatePaymentOverDailyLimit(t *testing.T) {
	engine := setupRouter(t)
	payerID := uuid.NewString()

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       payerID,
		"paymentSource": "CREDIT_CARD",
		"amount":        "2000.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       payerID,
		"paymentSource": "CREDIT_CARD",
		"amount":        "0.01",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	errBody := decodeError(t, w)
	assert.Equal(t, "daily_limit_exceeded", errBody["type"])
	assert.Equal(t, "daily payment limit exceeded for source: CREDIT_CARD", errBody["message"])
}

func TestGetPaymentEndpoints(t *testing.T) {
	engine := setupRouter(t)
	payerID := uuid.NewString()

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       payerID,
		"paymentSource": "DEBIT_CARD",
		"amount":        "75.25",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeData(t, w)["id"].(string)

	w = doJSON(t, engine, http.MethodGet, "/api/payments/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decodeData(t, w)["id"])

	w = doJSON(t, engine, http.MethodGet, "/api/payments/999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)

	w = doJSON(t, engine, http.MethodGet, "/api/payments/payer/"+payerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)

	w = doJSON(t, engine, http.MethodGet, "/api/payments/payer/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Empty(t, listResp.Data)
}

func TestUpdatePaymentStatusEndpoint(t *testing.T) {
	engine := setupRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       uuid.NewString(),
		"paymentSource": "PIX",
		"amount":        "50.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeData(t, w)["id"].(string)

	w = doJSON(t, engine, http.MethodPut, "/api/payments/"+id, gin.H{"status": "PAID"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", decodeData(t, w)["status"])

	w = doJSON(t, engine, http.MethodPut, "/api/payments/999999", gin.H{"status": "PAID"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPut, "/api/payments/"+id, gin.H{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodPut, "/api/payments/"+id, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	engine := setupRouter(t)
	payerID := uuid.NewString()

	w := doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"payerId":       payerID,
		"paymentSource": "PIX",
		"amount":        "10.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/internal/test/cleanup", gin.H{"payerId": payerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/api/payments/payer/"+payerID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Empty(t, listResp.Data)
}
