package ollama

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopsmart/backend/internal/domain"
)

// endpoint reports availability for one configured model
type endpoint struct {
	client *Client
	model  string
}

// Availability is "readily" when the model is installed and "after-download" otherwise
func (e *endpoint) Availability(ctx context.Context) (domain.Availability, error) {
	names, err := e.client.ListModels(ctx)
	if err != nil {
		return domain.AvailabilityNo, err
	}
	for _, name := range names {
		if sameModel(name, e.model) {
			return domain.AvailabilityReadily, nil
		}
	}
	return domain.AvailabilityAfterDownload, nil
}

// sameModel treats an untagged name as ":latest"
func sameModel(installed, wanted string) bool {
	if installed == wanted {
		return true
	}
	return withTag(installed) == withTag(wanted)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}

// LanguageModel opens chat sessions against a prompt model
type LanguageModel struct {
	endpoint
}

// NewLanguageModel creates a prompt endpoint for model
func NewLanguageModel(client *Client, model string) *LanguageModel {
	return &LanguageModel{endpoint{client: client, model: model}}
}

// CreateSession starts a conversation seeded with systemPrompt
func (m *LanguageModel) CreateSession(ctx context.Context, systemPrompt string) (domain.PromptSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &session{client: m.client, model: m.model}
	if systemPrompt != "" {
		s.history = append(s.history, Message{Role: "system", Content: systemPrompt})
	}
	return s, nil
}

// session keeps the running chat history
type session struct {
	client *Client
	model  string

	mu      sync.Mutex
	history []Message
	closed  bool
}

func (s *session) Prompt(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.ErrSessionClosed
	}

	messages := append(append([]Message(nil), s.history...), Message{Role: "user", Content: text})
	reply, err := s.client.Chat(ctx, s.model, messages)
	if err != nil {
		return "", err
	}

	s.history = append(messages, Message{Role: "assistant", Content: reply})
	return reply, nil
}

func (s *session) Destroy(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.history = nil
	s.mu.Unlock()
	return nil
}

// Summarizer condenses text with a dedicated model
type Summarizer struct {
	endpoint
}

// NewSummarizer creates a summarizer endpoint for model
func NewSummarizer(client *Client, model string) *Summarizer {
	return &Summarizer{endpoint{client: client, model: model}}
}

// CreateSummarizer returns a session configured by opts
func (m *Summarizer) CreateSummarizer(ctx context.Context, opts domain.SummarizerOptions) (domain.SummarizerSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &summarizerSession{client: m.client, model: m.model, instruction: summarizerInstruction(opts)}, nil
}

func summarizerInstruction(opts domain.SummarizerOptions) string {
	length := "short"
	switch opts.Length {
	case "medium", "long":
		length = opts.Length
	}

	switch opts.Type {
	case "tl;dr":
		return fmt.Sprintf("Write a %s TL;DR of the text the user sends. Reply with the summary only.", length)
	case "headline":
		return "Write a single headline for the text the user sends. Reply with the headline only."
	case "teaser":
		return fmt.Sprintf("Write a %s teaser for the text the user sends. Reply with the teaser only.", length)
	default:
		return fmt.Sprintf("Summarize the text the user sends as a %s list of key points. Reply with the list only.", length)
	}
}

type summarizerSession struct {
	client      *Client
	model       string
	instruction string

	mu     sync.Mutex
	closed bool
}

func (s *summarizerSession) Summarize(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", domain.ErrSessionClosed
	}

	return s.client.Chat(ctx, s.model, []Message{
		{Role: "system", Content: s.instruction},
		{Role: "user", Content: text},
	})
}

func (s *summarizerSession) Destroy(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ProbeEndpoint only answers availability; writer and rewriter are never invoked
type ProbeEndpoint struct {
	endpoint
}

// NewProbeEndpoint creates an availability-only endpoint for model
func NewProbeEndpoint(client *Client, model string) *ProbeEndpoint {
	return &ProbeEndpoint{endpoint{client: client, model: model}}
}

// Models names the model serving each capability. Empty means absent.
type Models struct {
	Prompt     string
	Summarizer string
	Writer     string
	Rewriter   string
}

// NewProvider builds the capability set. Endpoints with no model stay nil.
func NewProvider(client *Client, models Models) domain.AIProvider {
	var p domain.AIProvider
	if models.Prompt != "" {
		p.LanguageModel = NewLanguageModel(client, models.Prompt)
	}
	if models.Summarizer != "" {
		p.Summarizer = NewSummarizer(client, models.Summarizer)
	}
	if models.Writer != "" {
		p.Writer = NewProbeEndpoint(client, models.Writer)
	}
	if models.Rewriter != "" {
		p.Rewriter = NewProbeEndpoint(client, models.Rewriter)
	}
	return p
}
