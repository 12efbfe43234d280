package services

// FallbackTable holds the replies substituted when the model cannot answer.
// It is read-only once built.
type FallbackTable map[Category]string

// DefaultFallbacks are the pre-authored examiner replies.
func DefaultFallbacks() FallbackTable {
	return FallbackTable{
		CategoryFirstQuestion: "Thank you for your introduction! Now, can you tell me about what the girl in the video was learning? What did you see her doing with recycling, reusing, or reducing waste?",
		CategoryFollowUp:      "That's a great observation about the 3 R's! Can you tell me why you think recycling, reusing, and reducing waste is important for our environment?",
		CategoryFeedback:      "Excellent work! You showed good understanding of the environmental message in the video and expressed yourself clearly in English. I can see you understand the importance of the 3 R's - recycling, reusing, and reducing waste. For improvement, try to include even more specific details about what you observed. Keep up the great work in caring for our environment!",
		CategoryGeneric:       "Thank you for your response. Let's continue with our conversation about what you learned.",
	}
}

// Lookup returns the entry for category, falling back to the generic entry.
func (t FallbackTable) Lookup(category Category) string {
	if text, ok := t[category]; ok {
		return text
	}
	return t[CategoryGeneric]
}
