package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(GeminiConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewGeminiClientMissingKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{APIKey: "   "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerateSuccess(t *testing.T) {
	var gotBody geminiRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Article 21 "}, {"text": "guarantees life and liberty."}]}}],
			"usageMetadata": {"totalTokenCount": 42}
		}`))
	})

	result, err := client.Generate(context.Background(), "What is Article 21?", GenerateOptions{
		MaxTokens:   1000,
		Temperature: 0.7,
		TopP:        0.8,
		TopK:        40,
	})
	require.NoError(t, err)

	assert.Equal(t, "Article 21 guarantees life and liberty.", result.Text)
	assert.Equal(t, 42, result.TokensUsed)

	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "What is Article 21?", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, 1000, gotBody.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, 0.7, gotBody.GenerationConfig.Temperature)
}

func TestGenerateProviderError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Generate(context.Background(), "hello", GenerateOptions{})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", provErr.Status)
	assert.Equal(t, "quota exceeded", provErr.Message)
	assert.False(t, IsTimeout(err))
}

func TestGenerateProviderErrorUnparsableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream hiccup"))
	})

	_, err := client.Generate(context.Background(), "hello", GenerateOptions{})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadGateway, provErr.StatusCode)
	assert.Equal(t, "upstream hiccup", provErr.Message)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.Generate(context.Background(), "hello", GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyCandidates)
}

func TestGenerateBlankTextIsEmptyCandidates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "   "}]}}]}`))
	})

	_, err := client.Generate(context.Background(), "hello", GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyCandidates)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(GeminiConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello", GenerateOptions{})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	var provErr *ProviderError
	assert.False(t, errors.As(err, &provErr))
}
