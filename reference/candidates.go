package reference

import (
	"strings"
)

// CandidateBuilder expands a normalized, non-inline reference into an
// ordered list of fully-qualified gateway URLs. Order is part of the
// contract: the primary gateway is always tried first, mirrors follow in
// configured order, and callers rely on that determinism.
type CandidateBuilder struct {
	gateways []string
}

// NewCandidateBuilder takes gateway base URLs in preference order; each
// base is normalized to end in exactly one slash.
func NewCandidateBuilder(gateways []string) *CandidateBuilder {
	bases := make([]string, 0, len(gateways))
	for _, g := range gateways {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		bases = append(bases, strings.TrimSuffix(g, "/")+"/")
	}
	return &CandidateBuilder{gateways: bases}
}

// Candidates returns the deduplicated URL hypotheses for ref, preserving
// first-seen order. An http(s) reference is always its own primary
// candidate; mirrors are still appended when a content path can be
// extracted from it, so a dead pinned gateway does not strand the content.
func (b *CandidateBuilder) Candidates(ref string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(u string) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		add(ref)
		if path, ok := pathFromUrl(ref); ok {
			for _, base := range b.gateways {
				add(base + path)
			}
		}
		return out
	}

	path, ok := contentPath(ref)
	if !ok {
		// Bare content identifier heuristic: a long alphanumeric token
		// with no scheme is treated as a CID.
		if cidPattern.MatchString(ref) && !strings.ContainsAny(ref, " /") {
			path = ref
			ok = true
		}
	}
	if !ok {
		return out
	}

	for _, base := range b.gateways {
		add(base + path)
	}
	return out
}

// pathFromUrl pulls the content path out of a gateway-style URL such as
// "https://gw.example.com/ipfs/<cid>/file.json".
func pathFromUrl(u string) (string, bool) {
	if _, after, found := strings.Cut(u, "/ipfs/"); found && after != "" {
		return after, true
	}
	return "", false
}
