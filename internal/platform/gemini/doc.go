// Package gemini provides an implementation of the generation.Generator interface
// that uses Google's Gemini API to propose flashcards from article text.
//
// This package is an infrastructure adapter: it renders the prompt template,
// calls the model through google.golang.org/genai, and converts the JSON reply
// into domain.ProposalDraft values. Transient API failures are retried with
// exponential backoff and jitter; blocked or malformed replies are not.
package gemini
