package vk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "vkstats/pkg/errors"
	"vkstats/pkg/logger"
	"vkstats/pkg/retry"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client := NewClient("token123", Options{
		BaseURL:      serverURL,
		Version:      "5.34",
		CallInterval: time.Millisecond,
		Timeout:      2 * time.Second,
	}, logger.NewNop())
	client.SetRetryConfig(&retry.Config{
		MaxAttempts: 10,
		Backoff:     &retry.ConstantBackoff{Delay: 0},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	})
	return client
}

func TestCallRetriesTransportFaults(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			// Drop the connection without a response to simulate a
			// transport fault.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/method/wall.get", r.URL.Path)
		assert.Equal(t, "token123", r.PostFormValue("access_token"))
		assert.Equal(t, "5.34", r.PostFormValue("v"))
		assert.Equal(t, "1", r.PostFormValue("count"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"count":7,"items":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	raw, err := client.Call(context.Background(), "wall.get", map[string]string{"count": "1"})
	require.NoError(t, err)
	assert.Equal(t, 3, requests)

	var page WallPage
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 7, page.Count)
}

func TestCallRetriesBadStatus(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"response":1}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Call(context.Background(), "stats.trackVisitor", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestCallAPIErrorIsFatal(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Call(context.Background(), "wall.get", nil)
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeAPI, apiErr.Type)
	assert.Equal(t, 5, apiErr.Code)
	assert.Contains(t, apiErr.Message, "authorization failed")

	// An API error must not be retried.
	assert.Equal(t, 1, requests)
}

func TestCallUndecodableBodyIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Call(context.Background(), "wall.get", nil)
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestCallIntoDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":[{"id":1,"first_name":"Ann","last_name":"B","screen_name":"ann"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var users []User
	require.NoError(t, client.CallInto(context.Background(), "users.get", nil, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "ann", users[0].ScreenName)
}

func TestGroupsGetByIDEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GroupsGetByID(context.Background(), 42)
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}
