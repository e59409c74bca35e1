package domain

import "context"

// Store entry names shared with the presentation surfaces
const (
	StoreKeyAnalysisMode    = "analysisMode"
	StoreKeyAIStatus        = "aiStatus"
	StoreKeyCurrentProduct  = "currentProduct"
	StoreKeyCurrentAnalysis = "currentAnalysis"
)

// StoreChange describes one write to a watched key. Old is nil when the key was absent,
// New is nil when the key was deleted.
type StoreChange struct {
	Key string
	Old []byte
	New []byte
}

// KeyValueStore is the shared store. Values are JSON documents and every write
// replaces the whole entry.
type KeyValueStore interface {
	// Get returns the subset of keys that are present.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	// Subscribe returns a feed of changes to key and a function that ends the subscription.
	Subscribe(key string) (<-chan StoreChange, func())
}

// CapabilityEndpoint is an optional model sub-service
type CapabilityEndpoint interface {
	Availability(ctx context.Context) (Availability, error)
}

// LanguageModel creates prompt sessions
type LanguageModel interface {
	CapabilityEndpoint
	CreateSession(ctx context.Context, systemPrompt string) (PromptSession, error)
}

// PromptSession must be destroyed after use
type PromptSession interface {
	Prompt(ctx context.Context, text string) (string, error)
	Destroy(ctx context.Context) error
}

// Summarizer creates summarizer sessions
type Summarizer interface {
	CapabilityEndpoint
	CreateSummarizer(ctx context.Context, opts SummarizerOptions) (SummarizerSession, error)
}

// SummarizerSession must be destroyed after use
type SummarizerSession interface {
	Summarize(ctx context.Context, text string) (string, error)
	Destroy(ctx context.Context) error
}

// AIProvider groups the four sub-capabilities. A nil field means the endpoint is missing.
type AIProvider struct {
	LanguageModel LanguageModel
	Summarizer    Summarizer
	Writer        CapabilityEndpoint
	Rewriter      CapabilityEndpoint
}

// ProductExtractor turns a product page into ProductData
type ProductExtractor interface {
	Extract(pageURL string, html string) (*ProductData, error)
}
