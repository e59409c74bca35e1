package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopsmart/backend/internal/domain"
)

// jsonObjectRegex grabs everything from the first '{' to the last '}'
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// defaultSummarizeThreshold is the description length above which the summarizer is used
const defaultSummarizeThreshold = 500

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	SummarizeThreshold int
}

// AnalysisService runs eco and trust analyses against the language model and
// falls back to the deterministic scorer whenever the model cannot be used.
type AnalysisService struct {
	provider           domain.AIProvider
	summarizeThreshold int
	logger             *slog.Logger
}

// NewAnalysisService creates a new analysis service with dependencies
func NewAnalysisService(provider domain.AIProvider, config AnalysisServiceConfig, logger *slog.Logger) *AnalysisService {
	threshold := config.SummarizeThreshold
	if threshold <= 0 {
		threshold = defaultSummarizeThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalysisService{
		provider:           provider,
		summarizeThreshold: threshold,
		logger:             logger.With("component", "analysis_service"),
	}
}

// Analyze produces a result for mode. Model failures never surface: they resolve to
// the mock result. The only error is domain.ErrUnsupportedMode.
func (s *AnalysisService) Analyze(
	ctx context.Context,
	caps domain.CapabilityStatus,
	mode domain.Mode,
	product *domain.ProductData,
) (result domain.AnalysisResult, err error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMode, mode)
	}
	if product == nil {
		product = &domain.ProductData{}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis panicked, using mock data", "mode", mode, "panic", r)
			result, err = MockAnalysis(mode, product), nil
		}
	}()

	if mode == domain.ModeTrust {
		return s.analyzeTrust(ctx, caps, product), nil
	}
	return s.analyzeEco(ctx, caps, product), nil
}

func (s *AnalysisService) analyzeEco(ctx context.Context, caps domain.CapabilityStatus, product *domain.ProductData) domain.AnalysisResult {
	if !caps.PromptAPI || s.provider.LanguageModel == nil {
		return MockEcoAnalysis(product)
	}

	description := product.Description
	if caps.SummarizerAPI && s.provider.Summarizer != nil && utf8.RuneCountInString(description) > s.summarizeThreshold {
		summary, err := s.summarize(ctx, description)
		if err != nil {
			s.logger.Debug("summarizer failed, keeping full description", "error", err)
		} else {
			description = summary
		}
	}

	reply, err := s.prompt(ctx, ecoSystemPrompt, ecoUserPrompt(product, description))
	if err != nil {
		s.logger.Warn("eco analysis failed, using mock data", "error", err)
		return MockEcoAnalysis(product)
	}

	var analysis domain.EcoAnalysis
	if err := decodeModelJSON(reply, ecoRequiredFields, &analysis); err != nil {
		s.logger.Warn("failed to parse eco model response", "error", err)
		return MockEcoAnalysis(product)
	}

	analysis.Type = domain.ModeEco
	analysis.UsingMockData = false
	return &analysis
}

func (s *AnalysisService) analyzeTrust(ctx context.Context, caps domain.CapabilityStatus, product *domain.ProductData) domain.AnalysisResult {
	if !caps.PromptAPI || s.provider.LanguageModel == nil {
		return MockTrustAnalysis(product)
	}

	reply, err := s.prompt(ctx, trustSystemPrompt, trustUserPrompt(product))
	if err != nil {
		s.logger.Warn("trust analysis failed, using mock data", "error", err)
		return MockTrustAnalysis(product)
	}

	var analysis domain.TrustAnalysis
	if err := decodeModelJSON(reply, trustRequiredFields, &analysis); err != nil {
		s.logger.Warn("failed to parse trust model response", "error", err)
		return MockTrustAnalysis(product)
	}

	analysis.Type = domain.ModeTrust
	analysis.UsingMockData = false
	return &analysis
}

// prompt runs a single exchange in a fresh session and always destroys it
func (s *AnalysisService) prompt(ctx context.Context, systemPrompt, text string) (string, error) {
	session, err := s.provider.LanguageModel.CreateSession(ctx, systemPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: create session: %v", domain.ErrCapabilityUnavailable, err)
	}
	defer func() {
		if err := session.Destroy(ctx); err != nil {
			s.logger.Debug("failed to destroy prompt session", "error", err)
		}
	}()

	return session.Prompt(ctx, text)
}

// summarize shortens text in a fresh summarizer session and always destroys it
func (s *AnalysisService) summarize(ctx context.Context, text string) (string, error) {
	summarizer, err := s.provider.Summarizer.CreateSummarizer(ctx, summaryOptions)
	if err != nil {
		return "", fmt.Errorf("%w: create summarizer: %v", domain.ErrCapabilityUnavailable, err)
	}
	defer func() {
		if err := summarizer.Destroy(ctx); err != nil {
			s.logger.Debug("failed to destroy summarizer", "error", err)
		}
	}()

	return summarizer.Summarize(ctx, text)
}

// decodeModelJSON extracts the JSON object from a model reply, checks that every
// required field is present and decodes it into out.
func decodeModelJSON(reply string, required []string, out interface{}) error {
	payload := jsonObjectRegex.FindString(reply)
	if payload == "" {
		payload = reply
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}

	for _, name := range required {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			return fmt.Errorf("%w: missing field %q", domain.ErrMalformedModelOutput, name)
		}
	}

	for _, name := range integerFields {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			continue
		}
		n, err := parseLenientInt(value)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", domain.ErrMalformedModelOutput, name, err)
		}
		fields[name] = json.RawMessage(strconv.Itoa(n))
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}
	return nil
}

// integerFields are the whole-number fields models sometimes send as 72.5 or "80"
var integerFields = []string{"score", "trustScore", "fakePercentage"}

// parseLenientInt accepts a JSON number or a numeric string, optionally
// suffixed with '%', and rounds it to the nearest integer
func parseLenientInt(raw json.RawMessage) (int, error) {
	text := string(raw)
	var quoted string
	if json.Unmarshal(raw, &quoted) == nil {
		text = strings.TrimSuffix(strings.TrimSpace(quoted), "%")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return int(math.Round(f)), nil
}
