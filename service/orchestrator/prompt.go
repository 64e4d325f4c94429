package orchestrator

import "fmt"

// DefaultPrompt is proposed when the caller supplies no prompt text.
const DefaultPrompt = `You are a helpful AI assistant focused on providing accurate, complete, and clear responses.

Guidelines:
- Provide comprehensive answers that fully address the user's question
- Use clear, easy-to-understand language
- Include relevant examples when helpful
- Be accurate and factual
- Structure responses logically
- Anticipate follow-up questions

Always aim to be helpful, informative, and user-friendly.`

// ManualReason is recorded when the goal asks for a change request without
// a score to justify it.
const ManualReason = "Manual prompt update requested"

// lowScore marks conversations counted as poorly answered in the reason.
const lowScore = 3

func automatedReason(average float64, scores []int) string {
	low := 0
	for _, score := range scores {
		if score < lowScore {
			low++
		}
	}
	return fmt.Sprintf("Automated prompt update based on evaluation. Average score: %.1f/5. %d conversations scored below %d.", average, low, lowScore)
}
