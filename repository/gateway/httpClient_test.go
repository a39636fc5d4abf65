package gatewayrepo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPCharge_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "reservation:9", body["external_id"])
		require.Equal(t, 150.0, body["amount"])
		require.Equal(t, "upi", body["method"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ch_123", "status": "SUCCEEDED"})
	}))
	defer srv.Close()

	g := NewHTTP(srv.URL+"/", "key", srv.Client())
	out, err := g.Charge(context.Background(), ChargeReq{ExternalID: "reservation:9", Amount: 150, Method: "upi"})
	require.NoError(t, err)
	require.Equal(t, "ch_123", out.Reference)
}

func TestHTTPCharge_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ch_9", "status": "DECLINED"})
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "key", srv.Client()).Charge(context.Background(), ChargeReq{Amount: 10})
	require.Error(t, err)
}

func TestHTTPCharge_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "key", srv.Client()).Charge(context.Background(), ChargeReq{Amount: 10})
	require.Error(t, err)
}

func TestStubCharge(t *testing.T) {
	out, err := NewStub().Charge(context.Background(), ChargeReq{Amount: 50})
	require.NoError(t, err)
	require.Contains(t, out.Reference, "PAY-")

	_, err = NewStub().Charge(context.Background(), ChargeReq{Amount: 0})
	require.Error(t, err)
}

func TestHTTP_NilClientUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ch_2", "status": "SUCCEEDED"})
	}))
	defer srv.Close()

	resp, err := NewHTTP(srv.URL, "key", nil).Charge(context.Background(), ChargeReq{Amount: 5, Method: "upi"})
	require.NoError(t, err)
	require.Equal(t, "ch_2", resp.Reference)
}
