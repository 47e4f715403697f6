package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// DefaultCatchCap is the number of best catches counted per member.
const DefaultCatchCap = 2

// Entry is one leaderboard row.
type Entry struct {
	Member entities.Member `json:"member"`
	Total  int             `json:"points"`
	Rank   int             `json:"rank"`
}

// Engine computes leaderboards from members and catches.
type Engine struct {
	cap int
}

// NewEngine returns an Engine counting at most catchCap catches per member.
// Values below 1 fall back to DefaultCatchCap.
func NewEngine(catchCap int) *Engine {
	if catchCap < 1 {
		catchCap = DefaultCatchCap
	}
	return &Engine{cap: catchCap}
}

// Cap returns the number of catches counted per member.
func (e *Engine) Cap() int {
	return e.cap
}

// Compute ranks every member by the sum of their best qualifying catch scores.
// Ties are broken by case-insensitive name and then by input order. topN <= 0 keeps
// the whole list. Catches of members not present in members are ignored.
func (e *Engine) Compute(members []entities.Member, catches []entities.Catch, topN int) []Entry {
	scores := make(map[uint][]int, len(members))
	for i := range catches {
		if pts := Points(&catches[i]); pts > 0 {
			scores[catches[i].MemberID] = append(scores[catches[i].MemberID], pts)
		}
	}

	entries := make([]Entry, len(members))
	for i := range members {
		entries[i] = Entry{Member: members[i], Total: e.bestSum(scores[members[i].ID])}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Member.Name), strings.ToLower(b.Member.Name))
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// bestSum adds the cap highest scores.
func (e *Engine) bestSum(pts []int) int {
	slices.SortFunc(pts, func(a, b int) int { return cmp.Compare(b, a) })
	total := 0
	for _, p := range pts[:min(len(pts), e.cap)] {
		total += p
	}
	return total
}
