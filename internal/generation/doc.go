// Package generation provides the interface and error contract for
// interacting with the external generation service. It abstracts the
// details of the LLM API integration (Gemini), allowing the processing
// core to transform rows without coupling to a specific provider.
package generation
