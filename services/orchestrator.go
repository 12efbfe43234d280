package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"speaksea/models"
)

// RecordSink receives a summary of every finished examination. It is
// write-only: nothing read back from it ever influences a conversation.
type RecordSink interface {
	Save(ctx context.Context, record *models.ExamRecord) error
}

// Orchestrator runs one conversation round: transcription, prompt
// selection, completion and synthesis, strictly in that order. It holds no
// per-conversation state.
type Orchestrator struct {
	transcriber Transcriber
	dialogue    *DialogueClient
	synthesizer Synthesizer
	records     RecordSink
	logger      *slog.Logger
	textOnly    bool
	now         func() time.Time
}

type OrchestratorOption func(*Orchestrator)

func WithRecordSink(sink RecordSink) OrchestratorOption {
	return func(o *Orchestrator) { o.records = sink }
}

func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTextOnlyOnSynthesisFailure returns the reply without audio when speech
// synthesis fails, instead of failing the round.
func WithTextOnlyOnSynthesisFailure(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) { o.textOnly = enabled }
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(stt Transcriber, dialogue *DialogueClient, tts Synthesizer, opts ...OrchestratorOption) (*Orchestrator, error) {
	if stt == nil || dialogue == nil || tts == nil {
		return nil, errors.New("services: orchestrator needs a transcriber, a dialogue client and a synthesizer")
	}
	o := &Orchestrator{
		transcriber: stt,
		dialogue:    dialogue,
		synthesizer: tts,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one voice round. Malformed input fails with *DecodeError
// before any provider is called; transcription and synthesis failures come
// back as *UpstreamError. If ctx is cancelled the context error is returned
// and no partial response.
func (o *Orchestrator) Run(ctx context.Context, req *models.ConversationRequest) (*models.ConversationResponse, error) {
	history, err := validateRound(req.Step, req.History)
	if err != nil {
		return nil, err
	}
	audio, err := DecodeAudio(req.Audio, req.Format)
	if err != nil {
		return nil, err
	}

	transcript, err := o.transcriber.Transcribe(ctx, audio.Data, audio.Format)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UpstreamError{Stage: StageTranscription, Err: err}
	}

	sel, reply, err := o.respond(ctx, req.Step, history, transcript.Text)
	if err != nil {
		return nil, err
	}

	speech, err := o.synthesizer.Synthesize(ctx, reply.Text, transcript.Language)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !o.textOnly {
			return nil, &UpstreamError{Stage: StageSynthesis, Err: err}
		}
		o.logger.Warn("synthesis failed, returning text only", "stage", StageSynthesis, "error", err)
		speech = nil
	}
	o.archive(ctx, sel, reply)

	return &models.ConversationResponse{
		TranscribedText: transcript.Text,
		ReplyText:       reply.Text,
		ReplyAudio:      speech,
		NextStep:        sel.Step.NextStep,
		IsComplete:      req.Step >= FinalStep,
	}, nil
}

// RunText drives the dialogue state machine with typed input, skipping both
// speech stages.
func (o *Orchestrator) RunText(ctx context.Context, req *models.TextTurnRequest) (*models.TextTurnResponse, error) {
	history, err := validateRound(req.Step, req.History)
	if err != nil {
		return nil, err
	}
	sel, reply, err := o.respond(ctx, req.Step, history, req.Text)
	if err != nil {
		return nil, err
	}
	o.archive(ctx, sel, reply)
	return &models.TextTurnResponse{
		Response:   reply.Text,
		NextStep:   sel.Step.NextStep,
		IsComplete: req.Step >= FinalStep,
	}, nil
}

func (o *Orchestrator) respond(ctx context.Context, step int, history []models.Turn, text string) (PromptSelection, Reply, error) {
	sel := SelectPrompt(step, history, text)
	reply := o.dialogue.Reply(ctx, sel, text, history)
	if reply.Kind == ReplyFatal {
		return PromptSelection{}, Reply{}, reply.Cause
	}

	o.logger.Debug("examiner reply",
		"phase", sel.Step.Phase.String(),
		"kind", reply.Kind.String(),
		"next_step", sel.Step.NextStep,
	)
	return sel, reply, nil
}

// archive records a delivered feedback turn. Rounds that fail before the
// reply reaches the caller are never archived.
func (o *Orchestrator) archive(ctx context.Context, sel PromptSelection, reply Reply) {
	if o.records == nil || sel.Step.Phase != PhaseFeedback {
		return
	}
	record := &models.ExamRecord{
		StudentResponses: sel.StudentResponses,
		Feedback:         reply.Text,
		Fallback:         reply.Kind == ReplyFallback,
		CreatedAt:        o.now().UTC(),
	}
	if err := o.records.Save(ctx, record); err != nil {
		o.logger.Error("failed to archive exam record", "error", err)
	}
}

// validateRound checks the caller-held state and returns the history with
// canonical roles.
func validateRound(step int, history []models.Turn) ([]models.Turn, error) {
	if step < 0 {
		return nil, newDecodeError("step", fmt.Errorf("must be >= 0, got %d", step))
	}
	turns := make([]models.Turn, len(history))
	for i, turn := range history {
		role, ok := turn.Role.Normalize()
		if !ok {
			return nil, newDecodeError("history", fmt.Errorf("turn %d has unknown role %q", i, turn.Role))
		}
		turn.Role = role
		turns[i] = turn
	}
	return turns, nil
}
