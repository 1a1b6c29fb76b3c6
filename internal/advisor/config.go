package advisor

// Config holds tip generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxTopics caps how many weak topics are sent to the model.
	MaxTopics int
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.4,
		MaxTopics:   5,
	}
}
