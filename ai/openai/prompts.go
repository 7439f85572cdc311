package openai

import "fmt"

const normalizeSystemPrompt = "You are an assistant that identifies the fundamental concepts in interview questions. " +
	"Extract the core question being asked, removing any unnecessary context or verbosity. " +
	"Your response should still be in question format. " +
	"Do not use any markdown formatting in your response. " +
	"Keep your response simple, direct, and focused on what's being tested."

const normalizeUserPromptTemplate = `Analyze this interview question and return only its core concept as a clear, direct question without any markdown: "%s"`

func buildNormalizePrompt(question string) string {
	return fmt.Sprintf(normalizeUserPromptTemplate, question)
}
