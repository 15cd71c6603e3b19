package domain

type VoteStatus string

const (
	StatusVoting   VoteStatus = "VOTING"
	StatusFinished VoteStatus = "FINISHED"
)

func (s VoteStatus) Valid() bool {
	return s == StatusVoting || s == StatusFinished
}

type Decision string

const (
	DecisionLike    Decision = "like"
	DecisionDislike Decision = "nope"
)

// VoteReport is a member's terminal outcome for one session.
type VoteReport struct {
	Likes       []string `json:"likes"`
	Dislikes    []string `json:"dislikes"`
	DisplayName string   `json:"name,omitempty"`
}

type ResultType string

const (
	ResultVote  ResultType = "VOTE"
	ResultMatch ResultType = "MATCH"
)

// SelectionResult is an append-only history record.
type SelectionResult struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	GroupID      string     `json:"groupId" gorm:"index"`
	Timestamp    int64      `json:"timestamp"`
	Type         ResultType `json:"type"`
	RestaurantID string     `json:"restaurantId,omitempty"`
	Likes        []string   `json:"likes,omitempty" gorm:"serializer:json"`
}
