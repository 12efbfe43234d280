package services

import (
	"fmt"
	"strings"

	"speaksea/models"
)

// Category selects the pre-authored reply used when the model is unavailable.
type Category string

const (
	CategoryFirstQuestion Category = "first_question"
	CategoryFollowUp      Category = "follow_up"
	CategoryFeedback      Category = "feedback"
	CategoryGeneric       Category = "generic"
)

// Phase is a stage of the scripted examination.
type Phase int

const (
	PhaseGreeting Phase = iota
	PhaseFirstQuestion
	PhaseSecondQuestion
	PhaseFeedback
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseGreeting:
		return "greeting"
	case PhaseFirstQuestion:
		return "first_question"
	case PhaseSecondQuestion:
		return "second_question"
	case PhaseFeedback:
		return "feedback"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// FinalStep is the step value at which the examination is over.
const FinalStep = 3

// StepDescriptor is recomputed from the step counter on every request.
type StepDescriptor struct {
	Phase    Phase
	Category Category
	NextStep int
}

// DescribeStep maps the caller's step counter onto the script.
func DescribeStep(step int) StepDescriptor {
	switch {
	case step <= 0:
		return StepDescriptor{Phase: PhaseFirstQuestion, Category: CategoryFirstQuestion, NextStep: 1}
	case step == 1:
		return StepDescriptor{Phase: PhaseSecondQuestion, Category: CategoryFollowUp, NextStep: 2}
	case step == 2:
		return StepDescriptor{Phase: PhaseFeedback, Category: CategoryFeedback, NextStep: FinalStep}
	default:
		return StepDescriptor{Phase: PhaseClosed, Category: CategoryGeneric, NextStep: FinalStep}
	}
}

// PromptSelection is the system instruction for one turn plus the state
// needed to interpret the reply.
type PromptSelection struct {
	Step        StepDescriptor
	Instruction string
	// Scripted instructions are spoken verbatim; no model call is made.
	Scripted bool
	// StudentResponses is set for the feedback phase, in chronological order.
	StudentResponses []string
}

// ClosingRemark is spoken for any request after the examination has ended.
const ClosingRemark = "Thank you for completing the oral examination!"

// SelectPrompt builds the examiner instruction for the given step. It is pure:
// identical inputs always yield an identical selection.
func SelectPrompt(step int, history []models.Turn, current string) PromptSelection {
	desc := DescribeStep(step)
	sel := PromptSelection{Step: desc}

	switch desc.Phase {
	case PhaseFirstQuestion:
		sel.Instruction = FirstQuestionPrompt()
	case PhaseSecondQuestion:
		sel.Instruction = SecondQuestionPrompt(previousResponse(history, current))
	case PhaseFeedback:
		sel.StudentResponses = studentResponses(history, current)
		sel.Instruction = FeedbackPrompt(sel.StudentResponses)
	default:
		sel.Instruction = ClosingRemark
		sel.Scripted = true
	}
	return sel
}

// previousResponse is the answer the follow-up question builds on: the turn
// just transcribed, or the latest recorded student turn when nothing was heard.
func previousResponse(history []models.Turn, current string) string {
	if text := strings.TrimSpace(current); text != "" {
		return text
	}
	for i := len(history) - 1; i >= 0; i-- {
		if role, _ := history[i].Role.Normalize(); role == models.RoleStudent {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

func studentResponses(history []models.Turn, current string) []string {
	responses := make([]string, 0, len(history)+1)
	for _, turn := range history {
		if role, _ := turn.Role.Normalize(); role == models.RoleStudent {
			responses = append(responses, turn.Content)
		}
	}
	return append(responses, current)
}

func GreetingPrompt() string {
	return `You are a friendly and encouraging PSLE oral examiner.
Greet the student warmly and ask them to introduce themselves before starting questions about the video.`
}

func FirstQuestionPrompt() string {
	return `You are a PSLE oral examiner. The student has just introduced themselves after watching a video about a girl learning to recycle, reuse and reduce (the 3 R's).

IMPORTANT: You are the EXAMINER, not the student. Never use the student's name as if it were your own.

Reply professionally by:
1. Acknowledging the introduction politely
2. Asking ONE clear question about what they observed in the video

Point the question at:
- What the girl was doing or learning about
- The recycling, reusing or reducing shown
- Any objects or materials being used

Stay conversational and encouraging, at PSLE level (Primary 6, age 12).`
}

func SecondQuestionPrompt(previous string) string {
	return fmt.Sprintf(`You are a PSLE oral examiner. The video showed a girl learning to recycle, reuse and reduce (the 3 R's). The student's previous response was: "%s"

Ask one thoughtful follow-up question that:
- Builds on what they said about the 3 R's or the activities in the video
- Invites them to explain why these habits matter
- Connects to their own experience of recycling, reusing or reducing waste
- Suits a Primary 6 student
- Shows you listened to their answer

Stay conversational and encouraging, with a focus on caring for the environment.`, previous)
}

func FeedbackPrompt(responses []string) string {
	lines := make([]string, len(responses))
	for i, resp := range responses {
		lines[i] = fmt.Sprintf("Response %d: %s", i+1, resp)
	}

	return fmt.Sprintf(`INSTRUCTION: You are a PSLE oral examiner giving FINAL FEEDBACK. The examination is COMPLETE. Do NOT ask any questions and do NOT continue the conversation.

STUDENT'S RESPONSES:
%s

TASK: Write a final assessment of 4-5 sentences on the student's ORAL COMMUNICATION:
1. LANGUAGE & EXPRESSION: vocabulary range, sentence structure, clarity of ideas
2. FLUENCY & CONFIDENCE: pace, hesitation, how readily they expressed themselves
3. CONTENT RELEVANCE: whether they stayed on topic with suitable examples
4. COMMUNICATION EFFECTIVENESS: how clearly their thoughts came across

STRUCTURE:
- Open with an overall positive view of their speaking
- Name 2-3 specific strengths
- Give 1-2 concrete suggestions to improve their speaking
- Close with encouragement

FORMAT: Begin with "Well done, [student name]!". This is the END of the examination.`, strings.Join(lines, "\n"))
}

// PromptCatalog returns every instruction template, rendered with sample
// input, for inspection by operators.
func PromptCatalog() map[string]string {
	return map[string]string{
		"greeting":        GreetingPrompt(),
		"first_question":  FirstQuestionPrompt(),
		"second_question": SecondQuestionPrompt("sample response"),
		"feedback":        FeedbackPrompt([]string{"response1", "response2"}),
	}
}
