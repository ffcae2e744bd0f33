package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Messages)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "three posts found"}},
			},
		})

	}))
	defer srv.Close()

	cli := New(srv.Client(), srv.URL, "test-key")

	out, err := cli.FindLeads(context.Background(), "standing desk for small apartments")
	require.NoError(t, err)
	assert.Equal(t, "three posts found", out)

}

func TestCompleteProviderError(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	cli := New(srv.Client(), srv.URL, "test-key")

	_, err := cli.FindLeads(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

}

func TestCompleteNoChoices(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	cli := New(srv.Client(), srv.URL, "test-key")

	_, err := cli.Answer(context.Background(), "q", "page text")
	require.Error(t, err)

}
