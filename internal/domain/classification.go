package domain

// Verifiability tiers. Lower is better: tier 1 sources are authoritative
// statistical agencies whose releases settle the market mechanically, tier 9
// markets are settleable but cannot be researched ahead of time.
const (
	TierOfficial     = 1 // statistical agency release (BLS, BEA, NWS, ...)
	TierSchedule     = 2 // official schedule or public record
	TierNews         = 3 // news-driven but fact-checkable
	TierNoEdge       = 4 // verifiable but unpredictable (crypto, indices)
	TierUnclassified = 9 // pure speculation or no recognised source
)

// DetectionMethod records which classifier stage produced the result.
type DetectionMethod string

const (
	DetectRegex       DetectionMethod = "regex"
	DetectKeyword     DetectionMethod = "keyword"
	DetectSpeculation DetectionMethod = "speculation"
	DetectNone        DetectionMethod = "none"
)

// ClassificationResult is the classifier's verdict for one market.
//
// Invariants: Tier == TierUnclassified whenever Sources is empty;
// Verifiable is false only when Sources is empty and no speculation
// pattern fired (speculative markets settle, they just can't be researched).
type ClassificationResult struct {
	Verifiable bool
	Tier       int
	Sources    []string
	Method     string
	Detection  DetectionMethod
}

// Accepted reports whether the result clears the given acceptance tier.
func (c ClassificationResult) Accepted(maxTier int) bool {
	return len(c.Sources) > 0 && c.Tier <= maxTier
}
