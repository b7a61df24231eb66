// internal/models/match.go
package models

import "time"

// ConfidenceLevel indicates how much of a composite score rests on real data
// versus neutral fallbacks. It is independent of the numeric score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceRank maps confidence levels to sort precedence (higher first).
func ConfidenceRank(c ConfidenceLevel) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// SubScores are the named 0-100 components of a composite match score.
type SubScores struct {
	Budget       int `json:"budget"`
	Style        int `json:"style"`
	Location     int `json:"location"`
	Rating       int `json:"rating"`
	Availability int `json:"availability"`
	Popularity   int `json:"popularity"`
}

// MatchResult is one scored (vendor, couple) pairing. For fixed inputs and a
// fixed evaluation time it is a pure function of the candidate and profile.
type MatchResult struct {
	VendorID    string          `json:"vendorId"`
	Score       int             `json:"score"` // 0-100 composite
	SubScores   SubScores       `json:"subScores"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Explanation string          `json:"explanation"`
	Highlights  []string        `json:"highlights,omitempty"` // at most 3
	Concerns    []string        `json:"concerns,omitempty"`   // at most 2
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// CacheEntry is one persisted recommendation keyed by (couple, vendor).
// Interested is recorded by the couple and survives recomputation.
type CacheEntry struct {
	CoupleID    string          `json:"coupleId"`
	VendorID    string          `json:"vendorId"`
	Score       int             `json:"score"`
	SubScores   SubScores       `json:"subScores"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Explanation string          `json:"explanation"`
	Highlights  []string        `json:"highlights,omitempty"`
	Concerns    []string        `json:"concerns,omitempty"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Interested  *bool           `json:"interested,omitempty"` // tri-state: unset/true/false
	ViewedAt    *time.Time      `json:"viewedAt,omitempty"`
}

// Result converts a cache row back into the MatchResult shape callers consume.
func (e *CacheEntry) Result() MatchResult {
	return MatchResult{
		VendorID:    e.VendorID,
		Score:       e.Score,
		SubScores:   e.SubScores,
		Confidence:  e.Confidence,
		Explanation: e.Explanation,
		Highlights:  e.Highlights,
		Concerns:    e.Concerns,
		ExpiresAt:   e.ExpiresAt,
	}
}
