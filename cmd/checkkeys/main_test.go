package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"speaksea/config"
	"speaksea/services"

	"github.com/stretchr/testify/require"
)

type fixedCompleter struct{ err error }

func (fixedCompleter) Name() string { return "fixed" }

func (f fixedCompleter) Complete(context.Context, services.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "API test successful", nil
}

type fixedSynth struct{ err error }

func (f fixedSynth) Synthesize(context.Context, string, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3"), nil
}

func TestRun_AllPass(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.APIKey = "sk-12345"
	out := &bytes.Buffer{}

	failed := run(context.Background(), out, cfg, fixedCompleter{}, fixedSynth{}, time.Second)
	require.Zero(t, failed)
	require.Contains(t, out.String(), "SEALION_API_KEY: found (8 characters)")
	require.Contains(t, out.String(), "OPENAI_API_KEY: missing")
	require.NotContains(t, out.String(), "sk-12345")
	require.Contains(t, out.String(), "all checks passed")
}

func TestRun_Failures(t *testing.T) {
	out := &bytes.Buffer{}
	rateLimited := &services.ProviderError{Provider: "fixed", Stage: services.StageCompletion, StatusCode: 429, Err: errors.New("slow down")}

	failed := run(context.Background(), out, &config.Config{}, fixedCompleter{err: rateLimited}, fixedSynth{err: errors.New("401")}, time.Second)
	require.Equal(t, 1, failed)
	require.Contains(t, out.String(), "rate limited (key is valid)")
	require.Contains(t, out.String(), "FAILED: 401")
}
