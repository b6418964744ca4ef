// Package generation defines the boundary between the import pipeline and
// external LLM services that propose flashcards from article text. The
// Generator interface is implemented by the Gemini adapter in
// internal/platform/gemini; the pipeline depends only on this package.
package generation
