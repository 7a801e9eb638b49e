package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gateway-registry/internal/config"
	"gateway-registry/internal/events"
	"gateway-registry/internal/infrastructure/database"
	"gateway-registry/internal/usecase/gateway"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderUseNumber = true

	db, err := database.NewDB(&config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	service := gateway.NewService(database.NewGatewayRepository(db), events.NopPublisher{})
	h := NewGatewayHandler(service)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func gatewayBody(serial, ip string, uids ...int) map[string]any {
	devices := make([]any, len(uids))
	for i, uid := range uids {
		devices[i] = map[string]any{
			"uid":         uid,
			"vendor":      "Acme",
			"dateCreated": "2024-01-02T03:04:05.000Z",
			"status":      "online",
		}
	}
	return map[string]any{
		"serialNumber":      serial,
		"name":              "Gateway " + serial,
		"ipv4Address":       ip,
		"peripheralDevices": devices,
	}
}

func TestCreateGateway(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", map[string]any{
		"serialNumber": "GATEWAY001",
		"name":         "Gateway 1",
		"ipv4Address":  "192.168.1.1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "GATEWAY001", body["serialNumber"])
	assert.Equal(t, "Gateway 1", body["name"])
	assert.Equal(t, "192.168.1.1", body["ipv4Address"])
	assert.Equal(t, []any{}, body["peripheralDevices"])
}

func TestCreateGateway_MissingSerialNumber(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", map[string]any{
		"name":        "Gateway 2",
		"ipv4Address": "192.168.1.2",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, `"serialNumber" is required`, body["message"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "serialNumber", body["field"])
}

func TestCreateGateway_EmptyBody(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `"serialNumber" is required`, decode(t, w)["message"])
}

func TestCreateGateway_MalformedJSON(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", `{"serialNumber":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/gateways", `[1, 2]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
}

func TestCreateGateway_InvalidIPv4(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "300.1.1.1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ipv4Address must be a valid IPv4 address", decode(t, w)["message"])
}

func TestCreateGateway_Duplicates(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.2"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Gateway already exists", body["message"])
	assert.Equal(t, "CONFLICT", body["code"])
	assert.Equal(t, "serialNumber", body["field"])

	w = doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY002", "10.0.0.1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ipv4Address", decode(t, w)["field"])

	w = doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY003", "10.0.0.3", 1))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decode(t, w)
	assert.Equal(t, "uid", body["field"])
	assert.Equal(t, "Device with uid 1 already exists", body["message"])
}

func TestCreateGateway_TooManyDevices(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways",
		gatewayBody("GATEWAY001", "10.0.0.1", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No more than 10 devices are allowed per gateway", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListGateways(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/gateways", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 1))
	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY002", "10.0.0.2"))

	w = doRequest(t, router, http.MethodGet, "/api/gateways", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "GATEWAY001", list[0]["serialNumber"])
	assert.Len(t, list[0]["peripheralDevices"], 1)
}

func TestGetGateway(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 7))

	w := doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY001", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	devices := body["peripheralDevices"].([]any)
	require.Len(t, devices, 1)
	device := devices[0].(map[string]any)
	assert.EqualValues(t, 7, device["uid"])
	assert.Equal(t, "2024-01-02T03:04:05Z", device["dateCreated"])
	assert.Equal(t, "online", device["status"])
}

func TestGetGateway_NotFound(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY002", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Gateway not found", decode(t, w)["message"])
}

func TestUpdateGateway(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "192.168.1.1", 1))

	w := doRequest(t, router, http.MethodPut, "/api/gateways/GATEWAY001", map[string]any{
		"serialNumber": "SOMETHING-ELSE",
		"name":         "Gateway 1 Updated",
		"ipv4Address":  "192.168.1.10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "GATEWAY001", body["serialNumber"])
	assert.Equal(t, "Gateway 1 Updated", body["name"])
	assert.Equal(t, "192.168.1.10", body["ipv4Address"])
	assert.Len(t, body["peripheralDevices"], 1)

	w = doRequest(t, router, http.MethodGet, "/api/gateways/SOMETHING-ELSE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateGateway_NameOnly(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "192.168.1.1"))

	w := doRequest(t, router, http.MethodPut, "/api/gateways/GATEWAY001", map[string]any{
		"name": "Gateway 1 Updated",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `"ipv4Address" is required`, decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY001", nil)
	assert.Equal(t, "Gateway GATEWAY001", decode(t, w)["name"])
}

func TestUpdateGateway_NotFound(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPut, "/api/gateways/GATEWAY002", map[string]any{
		"name":        "x",
		"ipv4Address": "10.0.0.1",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Gateway not found", decode(t, w)["message"])
}

func TestDeleteGateway(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 1))

	w := doRequest(t, router, http.MethodDelete, "/api/gateways/GATEWAY001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"serialNumber":"GATEWAY001"}`, w.Body.String())

	w = doRequest(t, router, http.MethodDelete, "/api/gateways/GATEWAY001", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Gateway not found", decode(t, w)["message"])
}

func TestAddDevice(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1"))

	w := doRequest(t, router, http.MethodPost, "/api/gateways/GATEWAY001/devices", map[string]any{
		"uid":    42,
		"vendor": "Initech",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	devices := decode(t, w)["peripheralDevices"].([]any)
	require.Len(t, devices, 1)
	device := devices[0].(map[string]any)
	assert.EqualValues(t, 42, device["uid"])
	assert.Equal(t, "offline", device["status"])
	assert.NotEmpty(t, device["dateCreated"])
}

func TestAddDevice_FullGateway(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/gateways",
		gatewayBody("GATEWAY001", "10.0.0.1", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/gateways/GATEWAY001/devices", map[string]any{
		"uid":    11,
		"vendor": "Acme",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No more than 10 devices are allowed per gateway", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY001", nil)
	assert.Len(t, decode(t, w)["peripheralDevices"], 10)
}

func TestAddDevice_Errors(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 1))

	w := doRequest(t, router, http.MethodPost, "/api/gateways/MISSING/devices", map[string]any{"uid": 2, "vendor": "Acme"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/gateways/GATEWAY001/devices", map[string]any{"uid": 1, "vendor": "Acme"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w)["code"])

	w = doRequest(t, router, http.MethodPost, "/api/gateways/GATEWAY001/devices", map[string]any{"uid": 3, "vendor": "Acme", "status": "busy"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `"status" must be one of [online, offline]`, decode(t, w)["message"])
}

func TestRemoveDevice(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/gateways", gatewayBody("GATEWAY001", "10.0.0.1", 1, 2))

	w := doRequest(t, router, http.MethodDelete, "/api/gateways/GATEWAY001/devices/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(t, router, http.MethodDelete, "/api/gateways/GATEWAY001/devices/1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Device not found", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodDelete, "/api/gateways/GATEWAY001/devices/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "uid", decode(t, w)["field"])

	w = doRequest(t, router, http.MethodGet, "/api/gateways/GATEWAY001", nil)
	assert.Len(t, decode(t, w)["peripheralDevices"], 1)
}
