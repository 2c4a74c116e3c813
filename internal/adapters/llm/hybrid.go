package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

// Provider names accepted by NewRemote.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Mode names reported by the health endpoint.
const (
	ModeMock   = "mock"
	ModeHybrid = "hybrid"
)

// mockKeywords are the PresentMon questions the mock reasoner can answer.
var mockKeywords = []string{
	"chart", "plot", "graph", "visualize", "show me", "draw",
	"fps", "frame time", "frametime", "frame rate",
	"stutter", "jitter", "spike",
	"cpu busy", "gpu busy", "cpubusy", "gpubusy",
	"bound", "bottleneck", "cpu vs gpu", "cpu or gpu",
	"cpu-bound", "gpu-bound", "cpu bound", "gpu bound",
	"throttl", "thermal", "power limit",
	"latency", "input lag", "display lag",
	"profile", "overview", "summary", "what data", "columns",
	"percentile", "p99", "p95", "1% low", "0.1% low",
}

// MockCapable reports whether the mock reasoner can handle a user message.
func MockCapable(text string) bool {
	return containsAny(strings.ToLower(text), mockKeywords...)
}

// Hybrid serves domain questions with the mock reasoner and forwards the
// rest to a remote provider. The choice follows the latest plain-text user
// message, so every iteration of a turn stays on the same reasoner.
type Hybrid struct {
	mock   ports.Reasoner
	remote ports.Reasoner
}

var _ ports.Reasoner = (*Hybrid)(nil)

func NewHybrid(mock, remote ports.Reasoner) *Hybrid {
	return &Hybrid{mock: mock, remote: remote}
}

func (h *Hybrid) Model() string { return h.remote.Model() }

func (h *Hybrid) Respond(ctx context.Context, req ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	if MockCapable(lastUserText(req.Messages)) {
		return h.mock.Respond(ctx, req)
	}
	return h.remote.Respond(ctx, req)
}

func lastUserText(turns []domain.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role == domain.RoleUser && t.IsPlainText() {
			return t.Text()
		}
	}
	return ""
}

// NewRemote builds the HTTP reasoner for a provider.
func NewRemote(provider string, opts Options) (ports.Reasoner, error) {
	switch provider {
	case ProviderAnthropic, "":
		return NewAnthropic(opts), nil
	case ProviderOpenAI:
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// New returns the mock reasoner when useMock is set, otherwise a hybrid of
// the mock and the configured remote provider.
func New(useMock bool, provider string, opts Options, store ports.CaptureStore) (ports.Reasoner, string, error) {
	mock := NewMock(store)
	if useMock {
		return mock, ModeMock, nil
	}
	if opts.APIKey == "" {
		return nil, "", errors.New("an API key is required when mock mode is disabled")
	}
	remote, err := NewRemote(provider, opts)
	if err != nil {
		return nil, "", err
	}
	return NewHybrid(mock, remote), ModeHybrid, nil
}
