// Package messaging exposes the analyze protocol over NATS request/reply
// and announces mode changes, with OpenTelemetry trace propagation.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopsmart/backend/internal/domain"
	"go.opentelemetry.io/otel"
)

// defaultRequestTimeout bounds a client request with no deadline; model calls can be slow
const defaultRequestTimeout = 2 * time.Minute

// ErrRemote wraps the error message of a failed reply
var ErrRemote = errors.New("analyze failed")

// AnalyzeHandler services one analyze request
type AnalyzeHandler interface {
	HandleAnalyzeRequest(ctx context.Context, mode domain.Mode, product *domain.ProductData) (*domain.AnalyzeResponse, error)
}

// ModeChanged is published whenever the stored analysis mode changes
type ModeChanged struct {
	Mode     domain.Mode `json:"mode"`
	Previous domain.Mode `json:"previous,omitempty"`
}

// AnalyzeSubject is the request/reply subject for analyze messages
func AnalyzeSubject(prefix string) string { return prefix + ".analyze" }

// ModeChangedSubject carries ModeChanged events
func ModeChangedSubject(prefix string) string { return prefix + ".mode.changed" }

// Server binds an AnalyzeHandler and the store change feed to NATS
type Server struct {
	nc      *nats.Conn
	handler AnalyzeHandler
	store   domain.KeyValueStore
	prefix  string
	logger  *slog.Logger

	mu         sync.Mutex
	sub        *nats.Subscription
	cancelFeed func()
	done       chan struct{}
}

// NewServer creates a NATS server for handler. store may be nil to skip mode announcements.
func NewServer(nc *nats.Conn, handler AnalyzeHandler, store domain.KeyValueStore, prefix string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		nc:      nc,
		handler: handler,
		store:   store,
		prefix:  prefix,
		logger:  logger.With("component", "nats"),
	}
}

// Start subscribes to the analyze subject and begins forwarding mode changes
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return errors.New("nats server already started")
	}

	sub, err := s.nc.Subscribe(AnalyzeSubject(s.prefix), s.onAnalyze)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", AnalyzeSubject(s.prefix), err)
	}
	s.sub = sub

	if s.store != nil {
		changes, cancel := s.store.Subscribe(domain.StoreKeyAnalysisMode)
		s.cancelFeed = cancel
		s.done = make(chan struct{})
		go s.forwardModeChanges(changes, s.done)
	}

	s.logger.Info("nats transport started", "subject", AnalyzeSubject(s.prefix))
	return nil
}

// Stop drains the subscription and stops forwarding mode changes
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.sub != nil {
		err = s.sub.Drain()
		s.sub = nil
	}
	if s.cancelFeed != nil {
		s.cancelFeed()
		<-s.done
		s.cancelFeed = nil
	}
	return err
}

func (s *Server) onAnalyze(msg *nats.Msg) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))

	reply, ok := s.handleAnalyzeMessage(ctx, msg.Data)
	if !ok || msg.Reply == "" {
		return
	}

	out := &nats.Msg{Subject: msg.Reply, Data: reply}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(out))
	if err := s.nc.PublishMsg(out); err != nil {
		s.logger.Warn("failed to send reply", "error", err)
	}
}

// handleAnalyzeMessage returns the encoded reply and whether one should be sent.
// Malformed payloads, unknown actions and unknown modes get no reply.
func (s *Server) handleAnalyzeMessage(ctx context.Context, data []byte) ([]byte, bool) {
	var req domain.AnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Debug("dropping malformed message", "error", err)
		return nil, false
	}
	if req.Action != domain.ActionAnalyzeProduct {
		s.logger.Debug("ignoring message", "action", req.Action)
		return nil, false
	}

	var reply any
	resp, err := s.handler.HandleAnalyzeRequest(ctx, req.Mode, &req.Data)
	switch {
	case errors.Is(err, domain.ErrUnsupportedMode):
		s.logger.Debug("ignoring unsupported mode", "mode", req.Mode)
		return nil, false
	case err != nil:
		s.logger.Error("analyze request failed", "error", err)
		reply = &domain.ErrorResponse{Success: false, Error: err.Error()}
	default:
		reply = resp
	}

	encoded, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("failed to encode reply", "error", err)
		return nil, false
	}
	return encoded, true
}

func (s *Server) forwardModeChanges(changes <-chan domain.StoreChange, done chan<- struct{}) {
	defer close(done)

	for change := range changes {
		var event ModeChanged
		if err := json.Unmarshal(change.New, &event.Mode); err != nil || !event.Mode.Valid() {
			continue
		}
		if change.Old != nil {
			var previous domain.Mode
			if json.Unmarshal(change.Old, &previous) == nil {
				event.Previous = previous
			}
		}

		if err := Publish(context.Background(), s.nc, ModeChangedSubject(s.prefix), event); err != nil {
			s.logger.Warn("failed to publish mode change", "error", err)
		}
	}
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return nc.PublishMsg(msg)
}

// Analyze sends req to the analyze subject and waits for the reply
func Analyze(ctx context.Context, nc *nats.Conn, prefix string, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	msg := &nats.Msg{Subject: AnalyzeSubject(prefix), Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	reply, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Mode    domain.Mode     `json:"mode"`
		Cached  bool            `json:"cached"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(reply.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if !raw.Success {
		return nil, fmt.Errorf("%w: %s", ErrRemote, raw.Error)
	}

	resp := &domain.AnalyzeResponse{Success: raw.Success, Mode: raw.Mode, Cached: raw.Cached}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		result, err := domain.DecodeAnalysisResult(raw.Data)
		if err != nil {
			return nil, err
		}
		resp.Data = result
	}
	return resp, nil
}
