package domain

// Availability is what a capability endpoint reports about itself
type Availability string

const (
	AvailabilityReadily       Availability = "readily"
	AvailabilityAfterDownload Availability = "after-download"
	AvailabilityNo            Availability = "no"
)

// CapabilityStatus records which model sub-capabilities are usable.
// Stored under StoreKeyAIStatus.
type CapabilityStatus struct {
	PromptAPI     bool `json:"promptAPI"`
	SummarizerAPI bool `json:"summarizerAPI"`
	WriterAPI     bool `json:"writerAPI"`
	RewriterAPI   bool `json:"rewriterAPI"`
}

// SummarizerOptions configures a summarizer session
type SummarizerOptions struct {
	Type   string `json:"type"`   // e.g. "key-points"
	Length string `json:"length"` // e.g. "short"
}
