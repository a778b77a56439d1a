package partner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPartnerServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchOrders(t *testing.T) {
	server := newPartnerServer(t, http.StatusOK, `[
		{"numeroPedido": "12345", "valor": 30.0, "produtos": [{"nome": "Caneta", "valor": 10.0}, {"nome": "Caderno", "valor": 20.0}]},
		{"numeroPedido": "67890", "descontoPercentual": 5, "produtos": []}
	]`)

	client := NewClient(server.URL, time.Second)
	payloads, err := client.FetchOrders(context.Background())
	require.NoError(t, err)

	require.Len(t, payloads, 2)
	assert.Equal(t, "12345", payloads[0].OrderNumber)
	assert.Len(t, payloads[0].Products, 2)
	assert.True(t, payloads[1].DiscountPercentage.Valid)
}

func TestFetchOrders_NullBody(t *testing.T) {
	server := newPartnerServer(t, http.StatusOK, `null`)

	payloads, err := NewClient(server.URL, time.Second).FetchOrders(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, payloads)
	assert.Empty(t, payloads)
}

func TestFetchOrders_EmptyBody(t *testing.T) {
	server := newPartnerServer(t, http.StatusOK, ``)

	payloads, err := NewClient(server.URL, time.Second).FetchOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func TestFetchOrders_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := newPartnerServer(t, http.StatusBadGateway, `oops`)

		_, err := NewClient(server.URL, time.Second).FetchOrders(context.Background())
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := newPartnerServer(t, http.StatusOK, `{"numeroPedido": "1"}`)

		_, err := NewClient(server.URL, time.Second).FetchOrders(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewClient("", time.Second).FetchOrders(context.Background())
		assert.Error(t, err)
	})
}
