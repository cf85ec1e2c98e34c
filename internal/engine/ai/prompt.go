// internal/engine/ai/prompt.go
package ai

import (
	"fmt"
	"strings"

	"chat-engine/internal/models"
)

// PromptInput carries everything the prompt builder needs for one attempt.
type PromptInput struct {
	Message   string
	Tenant    *models.Tenant
	Knowledge []models.KnowledgeSnippet
}

// BuildPrompt assembles the Danish customer-service instructions, the
// tenant's knowledge base and the user question into one prompt.
func BuildPrompt(in PromptInput) string {
	companyName := in.Tenant.ID
	if in.Tenant.CompanyName != "" {
		companyName = in.Tenant.CompanyName
	}

	var b strings.Builder

	fmt.Fprintf(&b, `Du er en professionel kundeservice chatbot for %s.

DINE OPGAVER:
1. Svar venligt, præcist og professionelt på kundens spørgsmål
2. Brug ALTID informationen fra videnbasen nedenfor
3. Hvis du ikke ved svaret med sikkerhed, vær ærlig og tilbyd at viderestille til en medarbejder
4. Hold svar korte og præcise (max 100 ord)
5. Skriv ALTID på dansk
6. Vær hjælpsom men aldrig opdigtende

REGLER:
- Giv ALDRIG juridisk, medicinsk eller finansiel rådgivning
- Fortæl ALDRIG om priser du ikke kender med sikkerhed
- Lov ALDRIG noget på vegne af virksomheden
- Hvis usikker: "Lad mig viderestille dig til en medarbejder som kan hjælpe bedre"

TONE:
- Professionel men venlig
- Dansk sprogbrug
- Kort og konkret
`, companyName)

	if len(in.Knowledge) > 0 {
		b.WriteString("\n\nVIDENBASE (brug denne information til at svare):\n")
		for i, kb := range in.Knowledge {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "--- Side %d ---\n%s", i+1, kb.Text)
		}
	}

	if in.Tenant.WebsiteURL != "" {
		fmt.Fprintf(&b, "\n\nVIRKSOMHEDENS HJEMMESIDE: %s", in.Tenant.WebsiteURL)
	}

	b.WriteString("\n\nHusk: Hvis du ikke kan svare præcist baseret på videnbasen, vær ærlig og tilbyd at viderestille.")

	fmt.Fprintf(&b, "\n\nUSER SPØRGSMÅL:\n%s\n\nSVAR (HUSK: Max 100 ord, på dansk):", in.Message)

	return b.String()
}

// EstimateTokens approximates usage as the word count of the prompt plus
// the word count of the reply. An estimate for reporting, not billing.
func EstimateTokens(prompt, reply string) int {
	return len(strings.Fields(prompt)) + len(strings.Fields(reply))
}
