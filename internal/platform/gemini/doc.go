// Package gemini implements the generation.Generator interface using
// Google's Gemini API via the google.golang.org/genai client. Each
// generator carries its own client handle so concurrent workers never
// share mutable connection state.
package gemini
