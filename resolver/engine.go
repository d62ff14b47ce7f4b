package resolver

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/SolomonYakubu/dop-marketplace-sub000/fetch"
	"github.com/SolomonYakubu/dop-marketplace-sub000/metadata"
	"github.com/SolomonYakubu/dop-marketplace-sub000/reference"
	"github.com/rs/zerolog"
)

// Engine is the public entry point of the content-resolution subsystem:
// raw on-chain reference in, fully-populated typed metadata out. It never
// returns an error and never panics; the worst outcome of any failure is a
// deterministic placeholder record.
type Engine struct {
	logger     *zerolog.Logger
	normalizer *reference.Normalizer
	builder    *reference.CandidateBuilder
	fetcher    *fetch.Fetcher
	resolver   *Resolver
}

func NewEngine(logger *zerolog.Logger, cfg *config.ResolverConfig) (*Engine, error) {
	fetcher, err := fetch.NewFetcher(logger, cfg)
	if err != nil {
		return nil, err
	}
	res, err := NewResolver(logger, cfg, fetcher)
	if err != nil {
		return nil, err
	}
	return &Engine{
		logger:     logger,
		normalizer: reference.NewNormalizer(cfg),
		builder:    reference.NewCandidateBuilder(cfg.Gateways()),
		fetcher:    fetcher,
		resolver:   res,
	}, nil
}

// Resolver exposes the underlying resolver, mainly for cache control.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// ResolveMetadata resolves raw into a typed metadata record, falling back
// field by field to the authoritative on-chain record.
func (e *Engine) ResolveMetadata(ctx context.Context, raw interface{}, rec metadata.OnChainRecord) metadata.Metadata {
	ref, ok := e.normalizer.Normalize(raw)
	if !ok {
		// No reference at all is not an error, just no metadata.
		return metadata.Fallback(rec)
	}

	if payload, ok := reference.DecodeInline(ref); ok {
		return metadata.Coerce(payload, "", rec)
	}

	candidates := e.builder.Candidates(ref)
	if len(candidates) == 0 {
		// The reference is neither a URL nor a content identifier; its
		// own text is the only human-meaningful content available. An
		// opaque blob (an undecodable data: URL, binary leftovers) must
		// not leak into the record, so the same readability filter as
		// the gateway text path applies.
		if !strings.HasPrefix(ref, "data:") && readableText(ref) {
			return metadata.Coerce(nil, ref, rec)
		}
		return metadata.Fallback(rec)
	}

	payload, err := e.resolver.Resolve(ctx, ref, candidates)
	if err == nil {
		return metadata.Coerce(payload, "", rec)
	}

	e.logger.Debug().Str("reference", ref).Err(err).Msg("json resolution exhausted, trying plain-text fallback")

	if text, terr := e.fetcher.FetchText(ctx, candidates[0]); terr == nil && readableText(text) {
		return metadata.Coerce(nil, text, rec)
	}

	return metadata.Fallback(rec)
}

// readableText filters out bodies that would make a useless description:
// empty, binary, or an HTML error page.
func readableText(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || !utf8.ValidString(t) {
		return false
	}
	return !strings.HasPrefix(t, "<")
}
