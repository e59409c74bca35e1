package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopsmart/backend/internal/domain"
)

// MockLanguageModel is a mock implementation of domain.LanguageModel
type MockLanguageModel struct {
	mu             sync.Mutex
	availability   domain.Availability
	availErr       error
	createErr      error
	reply          string
	promptErr      error
	panicOnPrompt  bool
	systemPrompts  []string
	prompts        []string
	sessionsOpened int
	sessionsClosed int
}

func (m *MockLanguageModel) Availability(ctx context.Context) (domain.Availability, error) {
	if m.availErr != nil {
		return "", m.availErr
	}
	return m.availability, nil
}

func (m *MockLanguageModel) CreateSession(ctx context.Context, systemPrompt string) (domain.PromptSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.sessionsOpened++
	m.systemPrompts = append(m.systemPrompts, systemPrompt)
	return &mockPromptSession{model: m}, nil
}

type mockPromptSession struct {
	model *MockLanguageModel
}

func (s *mockPromptSession) Prompt(ctx context.Context, text string) (string, error) {
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	if s.model.panicOnPrompt {
		panic("model exploded")
	}
	s.model.prompts = append(s.model.prompts, text)
	if s.model.promptErr != nil {
		return "", s.model.promptErr
	}
	return s.model.reply, nil
}

func (s *mockPromptSession) Destroy(ctx context.Context) error {
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	s.model.sessionsClosed++
	return nil
}

// MockSummarizer is a mock implementation of domain.Summarizer
type MockSummarizer struct {
	availability   domain.Availability
	availErr       error
	panicOnAvail   bool
	summary        string
	summarizeErr   error
	options        []domain.SummarizerOptions
	inputs         []string
	sessionsClosed int
}

func (m *MockSummarizer) Availability(ctx context.Context) (domain.Availability, error) {
	if m.panicOnAvail {
		panic("summarizer endpoint missing")
	}
	if m.availErr != nil {
		return "", m.availErr
	}
	return m.availability, nil
}

func (m *MockSummarizer) CreateSummarizer(ctx context.Context, opts domain.SummarizerOptions) (domain.SummarizerSession, error) {
	m.options = append(m.options, opts)
	return &mockSummarizerSession{summarizer: m}, nil
}

type mockSummarizerSession struct {
	summarizer *MockSummarizer
}

func (s *mockSummarizerSession) Summarize(ctx context.Context, text string) (string, error) {
	s.summarizer.inputs = append(s.summarizer.inputs, text)
	if s.summarizer.summarizeErr != nil {
		return "", s.summarizer.summarizeErr
	}
	return s.summarizer.summary, nil
}

func (s *mockSummarizerSession) Destroy(ctx context.Context) error {
	s.summarizer.sessionsClosed++
	return nil
}

// mockEndpoint is a probe-only capability endpoint
type mockEndpoint struct {
	availability domain.Availability
	err          error
}

func (m *mockEndpoint) Availability(ctx context.Context) (domain.Availability, error) {
	return m.availability, m.err
}

// MockStore is a mock implementation of domain.KeyValueStore
type MockStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	getCalls int
	setCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	out := make(map[string][]byte)
	for _, key := range keys {
		if value, ok := m.data[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (m *MockStore) Set(ctx context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	for key, value := range entries {
		m.data[key] = value
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockStore) Subscribe(key string) (<-chan domain.StoreChange, func()) {
	ch := make(chan domain.StoreChange)
	return ch, func() {}
}

func (m *MockStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// countingAnalyzer records Analyze invocations and delegates to the mock scorer
type countingAnalyzer struct {
	mu    sync.Mutex
	calls int
	caps  []domain.CapabilityStatus
	gate  chan struct{}
}

func (a *countingAnalyzer) Analyze(ctx context.Context, caps domain.CapabilityStatus, mode domain.Mode, product *domain.ProductData) (domain.AnalysisResult, error) {
	a.mu.Lock()
	a.calls++
	a.caps = append(a.caps, caps)
	a.mu.Unlock()

	if a.gate != nil {
		<-a.gate
	}
	if !mode.Valid() {
		return nil, domain.ErrUnsupportedMode
	}
	return MockAnalysis(mode, product), nil
}

func (a *countingAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

var errBoom = errors.New("boom")

// slowModelAnalyzer answers like a model after delay, or with the mock
// fallback when ctx ends first
type slowModelAnalyzer struct {
	delay time.Duration
	calls atomic.Int32
}

func (a *slowModelAnalyzer) Analyze(ctx context.Context, caps domain.CapabilityStatus, mode domain.Mode, product *domain.ProductData) (domain.AnalysisResult, error) {
	a.calls.Add(1)
	select {
	case <-time.After(a.delay):
		return &domain.EcoAnalysis{Type: domain.ModeEco, EcoScore: 91, Summary: "model verdict"}, nil
	case <-ctx.Done():
		return MockAnalysis(mode, product), nil
	}
}
