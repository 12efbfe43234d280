package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"speaksea/models"
)

func newTestDialogue(t *testing.T, c Completer, opts ...DialogueOption) *DialogueClient {
	t.Helper()
	d, err := NewDialogueClient(c, opts...)
	require.NoError(t, err)
	return d
}

func TestNewDialogueClient_NilCompleter(t *testing.T) {
	_, err := NewDialogueClient(nil)
	require.Error(t, err)
}

func TestReply_ModelText(t *testing.T) {
	c := &stubCompleter{reply: "  What did the girl put in the blue bin?  "}
	d := newTestDialogue(t, c, WithSampling(80, 0.5))

	reply := d.Reply(context.Background(), SelectPrompt(0, nil, "Hello"), "Hello", nil)
	require.Equal(t, ReplyModel, reply.Kind)
	require.Equal(t, "What did the girl put in the blue bin?", reply.Text)
	require.NoError(t, reply.Cause)
	require.Equal(t, 80, c.last.MaxTokens)
	require.Equal(t, 0.5, c.last.Temperature)
}

func TestReply_FailureUsesCategoryFallback(t *testing.T) {
	logger, buf := bufferLogger()
	c := &stubCompleter{err: &ProviderError{Provider: "stub", Stage: StageCompletion, StatusCode: 503, Err: errors.New("unavailable")}}
	d := newTestDialogue(t, c, WithDialogueLogger(logger))

	reply := d.Reply(context.Background(), SelectPrompt(0, nil, "Hello"), "Hello", nil)
	require.Equal(t, ReplyFallback, reply.Kind)
	require.Equal(t, DefaultFallbacks()[CategoryFirstQuestion], reply.Text)
	require.Error(t, reply.Cause)
	require.Contains(t, buf.String(), "stage=completion")
	require.Contains(t, buf.String(), "category=first_question")
}

func TestReply_TimeoutUsesFallback(t *testing.T) {
	c := &stubCompleter{block: true}
	d := newTestDialogue(t, c, WithCompletionTimeout(20*time.Millisecond))

	reply := d.Reply(context.Background(), SelectPrompt(1, nil, "It was fun"), "It was fun", nil)
	require.Equal(t, ReplyFallback, reply.Kind)
	require.Equal(t, DefaultFallbacks()[CategoryFollowUp], reply.Text)
	require.ErrorIs(t, reply.Cause, context.DeadlineExceeded)
}

func TestReply_EmptyCompletionUsesFallback(t *testing.T) {
	d := newTestDialogue(t, &stubCompleter{reply: "   "})
	reply := d.Reply(context.Background(), SelectPrompt(2, nil, "done"), "done", nil)
	require.Equal(t, ReplyFallback, reply.Kind)
	require.Equal(t, DefaultFallbacks()[CategoryFeedback], reply.Text)
}

func TestReply_CallerCancelledIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDialogue(t, &stubCompleter{block: true})
	reply := d.Reply(ctx, SelectPrompt(0, nil, "Hi"), "Hi", nil)
	require.Equal(t, ReplyFatal, reply.Kind)
	require.Empty(t, reply.Text)
	require.ErrorIs(t, reply.Cause, context.Canceled)
}

func TestReply_ClosedMakesNoCall(t *testing.T) {
	c := &stubCompleter{reply: "should not be used"}
	d := newTestDialogue(t, c)

	reply := d.Reply(context.Background(), SelectPrompt(3, nil, "Bye"), "Bye", nil)
	require.Equal(t, ReplyScripted, reply.Kind)
	require.Equal(t, ClosingRemark, reply.Text)
	require.Zero(t, c.callCount())
}

func TestReply_CustomFallbacks(t *testing.T) {
	table := FallbackTable{CategoryGeneric: "generic line"}
	d := newTestDialogue(t, &stubCompleter{err: errors.New("boom")}, WithFallbacks(table))
	reply := d.Reply(context.Background(), SelectPrompt(0, nil, "Hi"), "Hi", nil)
	require.Equal(t, "generic line", reply.Text)
}

func TestBuildMessages(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleExaminer, Content: "Q1"},
		{Role: models.RoleStudent, Content: "A1"},
		{Role: "ai", Content: "Q2"},
	}

	msgs := BuildMessages("instruction", "A2", history)
	require.Equal(t, []ChatMessage{
		{Role: ChatRoleSystem, Content: "instruction"},
		{Role: ChatRoleAssistant, Content: "Q1"},
		{Role: ChatRoleUser, Content: "A1"},
		{Role: ChatRoleAssistant, Content: "Q2"},
		{Role: ChatRoleUser, Content: "A2"},
	}, msgs)

	msgs = BuildMessages("instruction", "", history)
	require.Len(t, msgs, 4)
	require.Equal(t, "Q2", msgs[len(msgs)-1].Content)
}

func TestReplyKindString(t *testing.T) {
	require.Equal(t, "model", ReplyModel.String())
	require.Equal(t, "fallback", ReplyFallback.String())
	require.Equal(t, "scripted", ReplyScripted.String())
	require.Equal(t, "fatal", ReplyFatal.String())
}
