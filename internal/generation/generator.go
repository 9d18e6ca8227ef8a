package generation

import "context"

// Generator defines the interface for producing model output from a
// compiled prompt. It is the boundary between the processing core and
// the external generation service: one call per row, success/error
// contract, no retries.
type Generator interface {
	// GenerateText sends the compiled prompt to the generation service
	// and returns the generated text.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - prompt: The compiled prompt for one row
	//
	// Returns:
	//   - The generated text
	//   - An error if the call fails or the service returns no usable
	//     text (see errors.go for specific types)
	GenerateText(ctx context.Context, prompt string) (string, error)
}
