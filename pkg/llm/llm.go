// Package llm defines the gateway between the query pipeline and LLM
// providers. The low-level transport (Generator) differs per provider; the
// higher-level operations (model selection, solution generation,
// connectivity probe) share one implementation on top of it.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahoffer/cogito/pkg/thinkmodel"
)

// Generator is the transport-level capability a provider must supply: send
// one prompt, return the model's text reply.
type Generator interface {
	GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Client is the full capability set the query pipeline depends on.
type Client interface {
	Generator
	SelectModels(ctx context.Context, query string, available []thinkmodel.Model) ([]string, error)
	ProposeSolution(ctx context.Context, query string, selected []thinkmodel.Model) (string, error)
	CheckConnectivity(ctx context.Context) bool
}

// MaxSelectedModels caps how many thinking models one query may use.
const MaxSelectedModels = 3

var _ Client = (*Gateway)(nil)

// Gateway implements Client on top of any Generator. Both provider
// backends behave identically through it; only the transport differs.
type Gateway struct {
	gen Generator
	log *slog.Logger
}

// NewGateway wraps a provider transport. A nil logger falls back to
// slog.Default.
func NewGateway(gen Generator, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}

	return &Gateway{gen: gen, log: log}
}

// GenerateText forwards to the underlying provider transport.
func (g *Gateway) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return g.gen.GenerateText(ctx, prompt, systemPrompt)
}

// SelectModels asks the provider to pick 0-3 relevant model IDs for the
// query. The reply must be a JSON array of IDs; an unparsable reply is a
// soft failure that degrades to an empty selection rather than an error.
// IDs not present in the candidate set are dropped without reordering the
// survivors.
func (g *Gateway) SelectModels(ctx context.Context, query string, available []thinkmodel.Model) ([]string, error) {
	reply, err := g.gen.GenerateText(ctx, buildSelectionPrompt(query, available), selectionSystemPrompt)
	if err != nil {
		return nil, err
	}

	ids, err := parseSelection(reply)
	if err != nil {
		var soft *SelectionParseError
		if errors.As(err, &soft) {
			g.log.Warn("model selection reply not parsable, selecting none", "reply", soft.Reply)
			return nil, nil
		}
		return nil, err
	}

	valid := make(map[string]struct{}, len(available))
	for _, m := range available {
		valid[m.ID] = struct{}{}
	}

	var selected []string
	for _, id := range ids {
		if _, ok := valid[id]; !ok {
			g.log.Warn("selection contains unknown model id, dropping", "id", id)
			continue
		}
		selected = append(selected, id)
		if len(selected) == MaxSelectedModels {
			break
		}
	}

	return selected, nil
}

// ProposeSolution asks the provider to answer the query guided by the
// selected models. The reply is free-form prose and returned untouched.
func (g *Gateway) ProposeSolution(ctx context.Context, query string, selected []thinkmodel.Model) (string, error) {
	return g.gen.GenerateText(ctx, buildSolutionPrompt(query, selected), solutionSystemPrompt)
}

// connectivityPrompt is the canned probe sent by CheckConnectivity.
const connectivityPrompt = "Hello, please respond with 'OK' if you can hear me."

// CheckConnectivity sends a minimal probe and reports whether the provider
// answered affirmatively. Errors are treated as a failed check, never
// propagated.
func (g *Gateway) CheckConnectivity(ctx context.Context) bool {
	reply, err := g.gen.GenerateText(ctx, connectivityPrompt, "")
	if err != nil {
		g.log.Error("connectivity check failed", "error", err)
		return false
	}

	return strings.Contains(strings.ToLower(reply), "ok")
}
