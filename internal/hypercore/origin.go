package hypercore

// OriginKind tells whether a fetch result came from the live API or from
// the deterministic fallback dataset.
type OriginKind string

const (
	OriginLive     OriginKind = "live"
	OriginFallback OriginKind = "fallback"
)

// Origin tags every adapter result with its provenance. The adapter never
// returns an error for recoverable failures; callers that care whether the
// numbers are authoritative must check the origin.
type Origin struct {
	Kind   OriginKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

// Live marks a result as fetched from the upstream API.
func Live() Origin {
	return Origin{Kind: OriginLive}
}

// Fallback marks a result as substituted demo data, with the reason the
// live fetch was abandoned.
func Fallback(reason string) Origin {
	return Origin{Kind: OriginFallback, Reason: reason}
}

// IsFallback reports whether the result is non-authoritative.
func (o Origin) IsFallback() bool {
	return o.Kind == OriginFallback
}
