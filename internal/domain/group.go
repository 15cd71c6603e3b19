package domain

import "time"

const DefaultSwipingAmount = 10

// Group is one device's replica of a shared session container. Every device
// that has seen the group persists its own copy; there is no authority.
type Group struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name"`
	Note            string    `json:"note"`
	Area            string    `json:"area"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	SwipingAmount   int       `json:"swipingAmount"`
	IsVegetarian    bool      `json:"isVegetarian"`
	Members         []Member  `json:"members" gorm:"serializer:json"`
	InviteLink      string    `json:"inviteLink"`
	IdealPriceRange string    `json:"idealPriceRange"`
	MaxWaitTime     string    `json:"maxWaitTime"`
	AnonymousVoting bool      `json:"anonymousVoting"`
	UpdatedAt       time.Time `json:"-"`
}

// StubGroup is the local shell created when joining a group id this device
// has never seen.
func StubGroup(id string, self Member) Group {
	return Group{
		ID:            id,
		Name:          "Group " + id,
		Note:          "Joined via ID",
		Area:          "Unknown",
		SwipingAmount: DefaultSwipingAmount,
		Members:       []Member{self},
	}
}

// FallbackHost is members[0] of the snapshot, or selfID when the roster is empty.
func (g Group) FallbackHost(selfID string) string {
	if len(g.Members) > 0 && g.Members[0].ID != "" {
		return g.Members[0].ID
	}
	return selfID
}

// DeckQuery builds the free-text search used by the host to source a deck.
func (g Group) DeckQuery() string {
	q := g.Note
	if q == "" {
		q = "restaurants"
	}
	if g.IsVegetarian {
		q += " vegetarian"
	}
	if g.IdealPriceRange != "" {
		q += " price range " + g.IdealPriceRange
	}
	return q
}

func (g Group) DeckSize(fallback int) int {
	if g.SwipingAmount > 0 {
		return g.SwipingAmount
	}
	return fallback
}
