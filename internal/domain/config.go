package domain

// KeyPrefix namespaces every key this service writes to a shared key-value store.
const KeyPrefix = "assessrec:"

// VectorConfig holds vectorization settings shared by the builder and the server.
// Both sides must agree on it, or query vectors will not be comparable to
// the indexed document vectors.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration for a
// sentence-transformers style MiniLM model served behind an OpenAI-compatible API.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions: 384,
	}
}
