package usecase

import (
	"sync"

	"github.com/shopsmart/backend/internal/domain"
)

// Runtime is the process-wide capability state. It is built once at startup and
// handed to the coordinator; readers take a copy per request.
type Runtime struct {
	mu           sync.RWMutex
	capabilities domain.CapabilityStatus
}

// NewRuntime creates a runtime with the given initial capabilities
func NewRuntime(initial domain.CapabilityStatus) *Runtime {
	return &Runtime{capabilities: initial}
}

// Capabilities returns the current capability snapshot
func (r *Runtime) Capabilities() domain.CapabilityStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capabilities
}

// UpdateCapabilities replaces the capability snapshot
func (r *Runtime) UpdateCapabilities(status domain.CapabilityStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities = status
}
