package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrUnknownType  = errors.New("unknown message type")
	ErrMissingGroup = errors.New("missing group id")
)

type MessageType string

const (
	TypeJoinRequest   MessageType = "JOIN_REQUEST"
	TypeLobbyUpdate   MessageType = "LOBBY_UPDATE"
	TypeStartSession  MessageType = "START_SESSION"
	TypeVoteUpdate    MessageType = "VOTE_UPDATE"
	TypeSessionFinish MessageType = "SESSION_FINISH"
)

// Payload is implemented by exactly one struct per MessageType.
type Payload interface{ Type() MessageType }

type JoinRequest struct {
	User domain.Member `json:"user"`
}

type LobbyUpdate struct {
	Members []domain.Member `json:"members"`
	HostID  string          `json:"hostId,omitempty"`
}

type StartSession struct {
	Restaurants []domain.Candidate `json:"restaurants"`
}

// VoteUpdate.Progress is informational only.
type VoteUpdate struct {
	Status   domain.VoteStatus `json:"status"`
	Progress float64           `json:"progress,omitempty"`
}

type SessionFinish struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
	Name     string   `json:"name,omitempty"`
}

func (JoinRequest) Type() MessageType   { return TypeJoinRequest }
func (LobbyUpdate) Type() MessageType   { return TypeLobbyUpdate }
func (StartSession) Type() MessageType  { return TypeStartSession }
func (VoteUpdate) Type() MessageType    { return TypeVoteUpdate }
func (SessionFinish) Type() MessageType { return TypeSessionFinish }

// Message is a validated envelope.
type Message struct {
	GroupID  string
	SenderID string
	Payload  Payload
}

func (m Message) Type() MessageType {
	if m.Payload == nil {
		return ""
	}
	return m.Payload.Type()
}

// Envelope is the JSON shape exchanged between peers.
type Envelope struct {
	Type     MessageType     `json:"type"`
	GroupID  string          `json:"groupId"`
	SenderID string          `json:"senderId"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func Encode(m Message) ([]byte, error) {
	if m.Payload == nil {
		return nil, fmt.Errorf("encode: %w", ErrMalformed)
	}
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(Envelope{
		Type:     m.Payload.Type(),
		GroupID:  m.GroupID,
		SenderID: m.SenderID,
		Payload:  payload,
	})
}

// Decode parses and validates an envelope. Anything that does not match one
// of the known payload shapes is rejected here so the session never sees it.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.GroupID == "" {
		return Message{}, ErrMissingGroup
	}
	if env.SenderID == "" {
		return Message{}, fmt.Errorf("%w: missing sender", ErrMalformed)
	}

	payload, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return Message{}, err
	}
	return Message{GroupID: env.GroupID, SenderID: env.SenderID, Payload: payload}, nil
}

func decodePayload(t MessageType, raw json.RawMessage) (Payload, error) {
	switch t {
	case TypeJoinRequest:
		var p JoinRequest
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		if p.User.ID == "" {
			return nil, fmt.Errorf("%w: join request without user", ErrMalformed)
		}
		return p, nil

	case TypeLobbyUpdate:
		var p LobbyUpdate
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		return p, nil

	case TypeStartSession:
		var p StartSession
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		return p, nil

	case TypeVoteUpdate:
		var p VoteUpdate
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		if p.Status == "" {
			p.Status = domain.StatusVoting
		}
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: vote status %q", ErrMalformed, p.Status)
		}
		return p, nil

	case TypeSessionFinish:
		var p SessionFinish
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
