// Package results ranks a session's deck from the members' vote reports.
package results

import (
	"cmp"
	"slices"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

// TopN is how many places are shown before ties at the boundary are added.
const TopN = 5

const UnknownName = "Unknown"

type Entry struct {
	Candidate domain.Candidate
	Likes     int
}

type voters struct {
	liked    []string
	disliked []string
}

// Ranking is the aggregated outcome. Voter names are only reachable through
// Voters, which refuses when the group votes anonymously.
type Ranking struct {
	entries   []Entry
	reports   int
	anonymous bool
	voters    map[string]voters
}

// Aggregate counts likes per deck candidate, sorts descending with deck order
// breaking ties, and keeps the top five plus anything tied with fifth place.
func Aggregate(deck []domain.Candidate, reports map[string]domain.VoteReport, roster []domain.Member, anonymous bool) Ranking {
	r := Ranking{reports: len(reports), anonymous: anonymous}
	if len(reports) == 0 {
		return r
	}

	order := reporterOrder(reports, roster)
	counts := make(map[string]int, len(deck))
	for _, uid := range order {
		for id := range unique(reports[uid].Likes) {
			counts[id]++
		}
	}

	ranked := make([]Entry, len(deck))
	for i, c := range deck {
		ranked[i] = Entry{Candidate: c, Likes: counts[c.ID]}
	}
	slices.SortStableFunc(ranked, func(a, b Entry) int {
		return cmp.Compare(b.Likes, a.Likes)
	})

	if len(ranked) > TopN {
		cutoff := ranked[TopN-1].Likes
		n := TopN
		for n < len(ranked) && ranked[n].Likes >= cutoff {
			n++
		}
		ranked = ranked[:n]
	}
	r.entries = ranked

	if !anonymous {
		r.voters = make(map[string]voters, len(deck))
		for _, c := range deck {
			r.voters[c.ID] = voters{}
		}
		for _, uid := range order {
			name := displayName(uid, reports[uid], roster)
			for id := range unique(reports[uid].Likes) {
				if v, ok := r.voters[id]; ok {
					v.liked = append(v.liked, name)
					r.voters[id] = v
				}
			}
			for id := range unique(reports[uid].Dislikes) {
				if v, ok := r.voters[id]; ok {
					v.disliked = append(v.disliked, name)
					r.voters[id] = v
				}
			}
		}
	}
	return r
}

func (r Ranking) Entries() []Entry { return slices.Clone(r.entries) }

// HasReports distinguishes "nobody reported" from "reported, all zero".
func (r Ranking) HasReports() bool { return r.reports > 0 }

func (r Ranking) Anonymous() bool { return r.anonymous }

// Voters returns who liked and disliked a candidate. ok is false for
// anonymous groups and for ids not in the deck.
func (r Ranking) Voters(candidateID string) (liked, disliked []string, ok bool) {
	if r.anonymous || r.voters == nil {
		return nil, nil, false
	}
	v, ok := r.voters[candidateID]
	if !ok {
		return nil, nil, false
	}
	return slices.Clone(v.liked), slices.Clone(v.disliked), true
}

// reporterOrder lists reporters in roster order, then the rest by id.
func reporterOrder(reports map[string]domain.VoteReport, roster []domain.Member) []string {
	order := make([]string, 0, len(reports))
	seen := make(map[string]bool, len(reports))
	for _, m := range roster {
		if _, ok := reports[m.ID]; ok && !seen[m.ID] {
			order = append(order, m.ID)
			seen[m.ID] = true
		}
	}
	var rest []string
	for uid := range reports {
		if !seen[uid] {
			rest = append(rest, uid)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}

func displayName(uid string, report domain.VoteReport, roster []domain.Member) string {
	if m, ok := domain.FindMember(roster, uid); ok && m.Name != "" {
		return m.Name
	}
	if report.DisplayName != "" {
		return report.DisplayName
	}
	return UnknownName
}

func unique(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
