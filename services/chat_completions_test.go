package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestChatCompletions_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "sea-lion", body["model"])
		require.EqualValues(t, 150, body["max_completion_tokens"])
		require.EqualValues(t, 0.7, body["temperature"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		require.Equal(t, "system", msgs[0].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":" Nice work! "}}]}`)
	}))
	defer srv.Close()

	c := NewChatCompletionsClient("sk-test", srv.URL+"/v1/", "sea-lion", srv.Client())
	text, err := c.Complete(context.Background(), CompletionRequest{
		Messages:    []ChatMessage{{Role: ChatRoleSystem, Content: "be kind"}, {Role: ChatRoleUser, Content: "hi"}},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	require.Equal(t, "Nice work!", text)
}

func TestChatCompletions_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "overloaded")
	}))
	defer srv.Close()

	c := NewChatCompletionsClient("sk-test", srv.URL, "m", nil)
	_, err := c.Complete(context.Background(), CompletionRequest{})

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, StageCompletion, perr.Stage)
	require.Equal(t, http.StatusServiceUnavailable, perr.HTTPStatusCode())
	require.Contains(t, err.Error(), "overloaded")
}

func TestChatCompletions_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewChatCompletionsClient("k", srv.URL, "m", nil).Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty choices")
}

func TestChatCompletions_TransportFailure(t *testing.T) {
	hc := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	_, err := NewChatCompletionsClient("k", "http://sealion.invalid", "m", hc).Complete(context.Background(), CompletionRequest{})

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	require.Zero(t, perr.StatusCode)
	require.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestChatCompletions_MissingKey(t *testing.T) {
	called := false
	hc := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unreachable")
	})}
	_, err := NewChatCompletionsClient("", "http://x", "m", hc).Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	require.False(t, called)
}

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]ChatMessage{
		{Role: ChatRoleSystem, Content: "examine"},
		{Role: ChatRoleAssistant, Content: "Q1"},
		{Role: ChatRoleUser, Content: "A1"},
	})
	require.Equal(t, "examine", system)
	require.Len(t, contents, 2)
	require.Equal(t, "model", contents[0].Role)
	require.Equal(t, "user", contents[1].Role)
}

func TestCleanModelOutput(t *testing.T) {
	require.Equal(t, "Well done!", cleanModelOutput("```text\nWell done!\n```"))
	require.Equal(t, "plain", cleanModelOutput("  plain "))
}
