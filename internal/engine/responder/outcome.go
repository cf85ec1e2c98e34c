// internal/engine/responder/outcome.go
package responder

// Source identifies which terminal state produced an outcome. Exactly one
// of rule match, AI success or fallback determines every outcome.
type Source string

const (
	SourceRule     Source = "rule"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// FallbackReason records why a fallback outcome was produced.
type FallbackReason string

const (
	FallbackEmptyMessage  FallbackReason = "empty_message"
	FallbackTooLong       FallbackReason = "message_too_long"
	FallbackNoMatch       FallbackReason = "no_match"
	FallbackQuotaExceeded FallbackReason = "quota_exceeded"
	FallbackAIError       FallbackReason = "ai_error"
	FallbackInternal      FallbackReason = "internal_error"
)

// IntentAIResponse is the synthetic intent name recorded on AI outcomes.
const IntentAIResponse = "ai_response"

// Outcome is the pipeline's output. Constructed only through RuleHit,
// AIHit and Fallback so each variant carries exactly the fields it
// guarantees: TokensUsed is meaningful only when IsAI is true, Reason only
// on fallbacks.
type Outcome struct {
	Source     Source         `json:"source"`
	Reply      string         `json:"reply"`
	Intent     string         `json:"intent,omitempty"`
	IsAI       bool           `json:"isAi"`
	IsFallback bool           `json:"isFallback"`
	TokensUsed int            `json:"tokensUsed,omitempty"`
	Reason     FallbackReason `json:"-"`
}

// RuleHit builds the outcome for a successful intent match.
func RuleHit(intent, reply string) Outcome {
	return Outcome{
		Source: SourceRule,
		Reply:  reply,
		Intent: intent,
	}
}

// AIHit builds the outcome for a completed AI call.
func AIHit(reply string, tokensUsed int) Outcome {
	return Outcome{
		Source:     SourceAI,
		Reply:      reply,
		Intent:     IntentAIResponse,
		IsAI:       true,
		TokensUsed: tokensUsed,
	}
}

// Fallback builds a low-confidence outcome with a canned reply.
func Fallback(reason FallbackReason, reply string) Outcome {
	return Outcome{
		Source:     SourceFallback,
		Reply:      reply,
		IsFallback: true,
		Reason:     reason,
	}
}

// Canned replies, verbatim from the widget's Danish copy.
const (
	ReplyEmptyMessage  = "Skriv gerne en besked, så hjælper jeg 😊"
	ReplyTooLong       = "Beskeden er for lang. Hold den venligst under 1000 tegn."
	ReplyQuotaExceeded = "Du har nået grænsen for AI-forespørgsler i dag. En medarbejder vil kontakte dig snart."
	ReplyAIError       = "Der opstod en fejl med AI-tjenesten. Lad mig viderestille dig til en medarbejder."
	ReplyNoMatch       = "Jeg forstod ikke helt. Lad mig viderestille dig til en medarbejder."
)
