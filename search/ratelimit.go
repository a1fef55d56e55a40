package search

import "github.com/deathrjj/age-github-search-tui/models"

// RateLimitStatus classifies the last observed remaining quota.
type RateLimitStatus int

const (
	RateLimitOK RateLimitStatus = iota
	RateLimitWarning
	RateLimitExceeded
)

// rateLimitWarningThreshold is the remaining quota at or below which a warning is shown.
const rateLimitWarningThreshold = 2

// CheckRateLimit classifies limits. An unknown quota is never limiting.
func CheckRateLimit(limits models.APILimitations) RateLimitStatus {
	if limits.Remaining == nil {
		return RateLimitOK
	}
	switch remaining := *limits.Remaining; {
	case remaining <= 0:
		return RateLimitExceeded
	case remaining <= rateLimitWarningThreshold:
		return RateLimitWarning
	default:
		return RateLimitOK
	}
}

func (s RateLimitStatus) String() string {
	switch s {
	case RateLimitOK:
		return "ok"
	case RateLimitWarning:
		return "warning"
	case RateLimitExceeded:
		return "exceeded"
	default:
		return "unknown"
	}
}
