package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_UpdateRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tables/deal_c/records", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "proj-1", r.Header.Get("X-Project-Id"))

		var body RecordsParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Records, 1)
		assert.Equal(t, float64(42), body.Records[0]["Id"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"results":[{"success":true,"data":{"Id":42,"status_c":"won"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", "proj-1", 5*time.Second, zap.NewNop())
	resp, err := client.UpdateRecord(context.Background(), "deal_c", RecordsParams{
		Records: []Record{{"Id": 42, "status_c": "won"}},
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.JSONEq(t, `{"Id":42,"status_c":"won"}`, string(resp.Results[0].Data))
}

func TestClient_EnvelopeOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Table deal_c not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "", 5*time.Second, zap.NewNop())
	resp, err := client.FetchRecords(context.Background(), "deal_c", FetchParams{Fields: []Field{Col("name_c")}})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Table deal_c not found", resp.Message)
}

func TestClient_NonEnvelopeIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "", 5*time.Second, zap.NewNop())
	_, err := client.GetRecordByID(context.Background(), "deal_c", 1, FetchParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_FillsMessageForBareFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "", 5*time.Second, zap.NewNop())
	resp, err := client.DeleteRecord(context.Background(), "deal_c", DeleteParams{RecordIDs: []int{3}})

	require.NoError(t, err)
	assert.Equal(t, "record store returned status 503", resp.Message)
}
