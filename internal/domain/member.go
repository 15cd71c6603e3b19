package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Member is a user as seen by one group. Name is group scoped and may change.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CleanName normalizes a display name so peers that type the same name on
// different keyboards end up with the same bytes.
func CleanName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// MergeMembers unions incoming into current by id. Later entries win on name.
// Order of first appearance is kept.
func MergeMembers(current, incoming []Member) []Member {
	out := make([]Member, 0, len(current)+len(incoming))
	index := make(map[string]int, len(current)+len(incoming))
	for _, list := range [][]Member{current, incoming} {
		for _, m := range list {
			if m.ID == "" {
				continue
			}
			if i, ok := index[m.ID]; ok {
				if m.Name != "" {
					out[i].Name = m.Name
				}
				continue
			}
			index[m.ID] = len(out)
			out = append(out, m)
		}
	}
	return out
}

// HostFirst moves hostID to the front of members if present.
func HostFirst(members []Member, hostID string) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.ID == hostID {
			out = append(out, m)
		}
	}
	for _, m := range members {
		if m.ID != hostID {
			out = append(out, m)
		}
	}
	return out
}

func FindMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}
