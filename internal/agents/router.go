package agents

import "strings"

// DefaultSet handles messages no rule matches.
const DefaultSet = PerformanceName

type rule struct {
	keywords []string
	set      string
}

// Rules are checked in order; the first keyword found anywhere in the
// lowercased message wins.
var rules = []rule{
	{
		keywords: []string{"chart", "plot", "graph", "visualize", "show me", "draw", "display chart"},
		set:      VisualizationName,
	},
	{
		keywords: []string{
			"fps", "frame time", "frametime", "stutter", "jitter", "latency",
			"cpu bound", "gpu bound", "cpu-bound", "gpu-bound", "bottleneck",
			"cpu busy", "gpu busy", "cpubusy", "gpubusy", "cpu wait", "gpu wait",
			"workload", "bound analysis",
			"percentile", "p99", "p95",
			"1% low", "0.1% low", "performance", "analyze", "analysis",
			"throttle", "throttling", "thermal", "power limit",
		},
		set: PerformanceName,
	},
	{
		keywords: []string{"compare", "comparison", "difference", "vs", "versus", "side by side", "before and after", "benchmark"},
		set:      ComparisonName,
	},
	{
		keywords: []string{"upload", "load", "file", "columns", "profile", "what data", "what's in"},
		set:      PerformanceName,
	},
}

// Router picks a capability set for a user message by keyword.
type Router struct {
	catalog *Catalog
}

func NewRouter(catalog *Catalog) *Router {
	return &Router{catalog: catalog}
}

// Classify returns the name of the set a message belongs to.
func (r *Router) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, rl := range rules {
		for _, kw := range rl.keywords {
			if strings.Contains(lower, kw) {
				return rl.set
			}
		}
	}
	return DefaultSet
}

// Route returns the set for a message, falling back to the default set when
// the classified one is not registered.
func (r *Router) Route(text string) CapabilitySet {
	if set, ok := r.catalog.Get(r.Classify(text)); ok {
		return set
	}
	set, _ := r.catalog.Get(DefaultSet)
	return set
}
