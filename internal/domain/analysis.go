package domain

import (
	"encoding/json"
	"fmt"
)

// Mode is the analysis dimension
type Mode string

const (
	ModeEco   Mode = "eco"
	ModeTrust Mode = "trust"
)

// DefaultMode is used when no mode has been stored yet
const DefaultMode = ModeEco

// Valid reports whether m is a mode the coordinator can service
func (m Mode) Valid() bool {
	return m == ModeEco || m == ModeTrust
}

// ParseMode converts a raw string into a Mode
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
	return m, nil
}

// Eco categories
const (
	EcoExcellent = "excellent"
	EcoGood      = "good"
	EcoFair      = "fair"
	EcoPoor      = "poor"
)

// Trust categories
const (
	TrustHighlyTrusted = "highly_trusted"
	TrustTrusted       = "trusted"
	TrustQuestionable  = "questionable"
	TrustSuspicious    = "suspicious"
)

// Recommendations
const (
	RecommendBuy      = "buy"
	RecommendCautious = "cautious"
	RecommendAvoid    = "avoid"
)

// AnalysisResult is either an *EcoAnalysis or a *TrustAnalysis.
type AnalysisResult interface {
	Mode() Mode
	// Score is the headline number shown on the badge.
	Score() int
	// IsMock reports whether the result came from the deterministic fallback.
	IsMock() bool
}

// EcoAnalysis is the sustainability result
type EcoAnalysis struct {
	Type           Mode     `json:"type"`
	EcoScore       int      `json:"score"`
	Category       string   `json:"category"`
	Materials      string   `json:"materials"`
	Certifications []string `json:"certifications"`
	Packaging      string   `json:"packaging"`
	Concerns       string   `json:"concerns"`
	Summary        string   `json:"summary"`
	UsingMockData  bool     `json:"usingMockData,omitempty"`
}

func (a *EcoAnalysis) Mode() Mode   { return ModeEco }
func (a *EcoAnalysis) Score() int   { return a.EcoScore }
func (a *EcoAnalysis) IsMock() bool { return a.UsingMockData }

// TrustAnalysis is the review authenticity result
type TrustAnalysis struct {
	Type              Mode     `json:"type"`
	TrustScore        int      `json:"trustScore"`
	Category          string   `json:"category"`
	FakePercentage    int      `json:"fakePercentage"`
	RedFlags          []string `json:"redFlags"`
	GenuineIndicators []string `json:"genuineIndicators"`
	Verdict           string   `json:"verdict"`
	Recommendation    string   `json:"recommendation"`
	UsingMockData     bool     `json:"usingMockData,omitempty"`
}

func (a *TrustAnalysis) Mode() Mode   { return ModeTrust }
func (a *TrustAnalysis) Score() int   { return a.TrustScore }
func (a *TrustAnalysis) IsMock() bool { return a.UsingMockData }

// DecodeAnalysisResult decodes a stored result, dispatching on its "type" tag
func DecodeAnalysisResult(data []byte) (AnalysisResult, error) {
	var tag struct {
		Type Mode `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode analysis tag: %w", err)
	}

	switch tag.Type {
	case ModeEco:
		var eco EcoAnalysis
		if err := json.Unmarshal(data, &eco); err != nil {
			return nil, fmt.Errorf("decode eco analysis: %w", err)
		}
		return &eco, nil
	case ModeTrust:
		var trust TrustAnalysis
		if err := json.Unmarshal(data, &trust); err != nil {
			return nil, fmt.Errorf("decode trust analysis: %w", err)
		}
		return &trust, nil
	default:
		return nil, fmt.Errorf("%w: analysis type %q", ErrUnsupportedMode, tag.Type)
	}
}
