package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/handler"
	"invoiceflow/mocks"
)

func TestHealthHandler_Health(t *testing.T) {
	store := new(mocks.MockInvoiceStore)
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("dial tcp: refused")).Once()
	h := handler.NewHealthHandler(store, "1.0.0")

	c, w := newContext(http.MethodGet, "/health", nil, "", "")
	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "connected", body["store"])
	assert.NotEmpty(t, body["timestamp"])

	c, w = newContext(http.MethodGet, "/health", nil, "", "")
	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error: dial tcp: refused", body["store"])
}

func TestHealthHandler_Readiness(t *testing.T) {
	store := new(mocks.MockInvoiceStore)
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("down")).Once()
	h := handler.NewHealthHandler(store, "1.0.0")

	c, w := newContext(http.MethodGet, "/readyz", nil, "", "")
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil, "", "")
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newContext(http.MethodGet, "/healthz", nil, "", "")
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
