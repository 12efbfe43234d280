package services

import (
	"errors"
	"fmt"
)

// Stage names a step of the conversation pipeline.
type Stage string

const (
	StageDecode        Stage = "decode"
	StageTranscription Stage = "transcription"
	StageCompletion    Stage = "completion"
	StageSynthesis     Stage = "synthesis"
)

// DecodeError reports a malformed request. It is the caller's fault and is
// always raised before any provider is contacted.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProviderError reports a failed call to an external provider.
type ProviderError struct {
	Provider   string
	Stage      Stage
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Provider, e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// HTTPStatusCode returns the upstream status, or 0 for transport failures.
func (e *ProviderError) HTTPStatusCode() int { return e.StatusCode }

// UpstreamError is raised by the orchestrator when a stage without a
// fallback fails. It ends the request.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StageOf reports which pipeline stage an error belongs to.
func StageOf(err error) (Stage, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Stage, true
	}
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.Stage, true
	}
	var decode *DecodeError
	if errors.As(err, &decode) {
		return StageDecode, true
	}
	return "", false
}

func newDecodeError(field string, err error) *DecodeError {
	return &DecodeError{Field: field, Err: err}
}
