// internal/engine/ai/prompt_test.go
package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-engine/internal/models"
)

func TestBuildPrompt_FullContext(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Message: "Hvad koster en konsultation?",
		Tenant: &models.Tenant{
			ID:          "tenant-1",
			CompanyName: "Din Klinik",
			WebsiteURL:  "https://dinklinik.dk",
		},
		Knowledge: []models.KnowledgeSnippet{
			{Text: "En konsultation koster 500 kr."},
			{Text: "Vi har åbent alle hverdage."},
		},
	})

	assert.Contains(t, prompt, "kundeservice chatbot for Din Klinik")
	assert.Contains(t, prompt, "VIDENBASE (brug denne information til at svare):")
	assert.Contains(t, prompt, "--- Side 1 ---\nEn konsultation koster 500 kr.")
	assert.Contains(t, prompt, "--- Side 2 ---\nVi har åbent alle hverdage.")
	assert.Contains(t, prompt, "VIRKSOMHEDENS HJEMMESIDE: https://dinklinik.dk")
	assert.Contains(t, prompt, "USER SPØRGSMÅL:\nHvad koster en konsultation?")
	assert.True(t, strings.HasSuffix(prompt, "SVAR (HUSK: Max 100 ord, på dansk):"))
}

func TestBuildPrompt_MinimalTenant(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Message: "Hej",
		Tenant:  &models.Tenant{ID: "tenant-1"},
	})

	// Tenant ID stands in when no company name is configured.
	assert.Contains(t, prompt, "kundeservice chatbot for tenant-1")
	assert.NotContains(t, prompt, "VIDENBASE")
	assert.NotContains(t, prompt, "VIRKSOMHEDENS HJEMMESIDE")
	assert.Contains(t, prompt, "USER SPØRGSMÅL:\nHej")
}

func TestBuildPrompt_GuardrailsAlwaysPresent(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Message: "giv mig juridisk rådgivning",
		Tenant:  &models.Tenant{ID: "t", CompanyName: "Firma"},
	})

	assert.Contains(t, prompt, "Giv ALDRIG juridisk, medicinsk eller finansiel rådgivning")
	assert.Contains(t, prompt, "Skriv ALTID på dansk")
	assert.Contains(t, prompt, "max 100 ord")
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		reply    string
		expected int
	}{
		{name: "simple", prompt: "et to tre", reply: "fire fem", expected: 5},
		{name: "empty reply", prompt: "et to", reply: "", expected: 2},
		{name: "both empty", prompt: "", reply: "", expected: 0},
		{name: "extra whitespace", prompt: "  et   to  ", reply: "\ttre\n", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.prompt, tt.reply))
		})
	}
}
