package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

type FrameType string

const (
	FrameJoinGroup FrameType = "JOIN_GROUP"
	FrameP2P       FrameType = "P2P_MESSAGE"
	FrameJoined    FrameType = "JOINED"
)

// Frame is the relay's outer envelope. Data is forwarded verbatim.
type Frame struct {
	Type    FrameType       `json:"type"`
	GroupID string          `json:"groupId,omitempty"`
	User    *domain.Member  `json:"user,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ParseFrame decodes a relay frame. For P2P frames only data.groupId is
// inspected; the rest of data is opaque to the relay.
func ParseFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch f.Type {
	case FrameJoinGroup, FrameJoined:
		if f.GroupID == "" {
			return Frame{}, ErrMissingGroup
		}
	case FrameP2P:
		gid, err := DataGroupID(f.Data)
		if err != nil {
			return Frame{}, err
		}
		f.GroupID = gid
	default:
		return Frame{}, fmt.Errorf("%w: frame %q", ErrUnknownType, f.Type)
	}
	return f, nil
}

func DataGroupID(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: p2p frame without data", ErrMalformed)
	}
	var head struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.GroupID == "" {
		return "", ErrMissingGroup
	}
	return head.GroupID, nil
}

func JoinGroupFrame(groupID string, user domain.Member) ([]byte, error) {
	return json.Marshal(Frame{Type: FrameJoinGroup, GroupID: groupID, User: &user})
}

func JoinedFrame(groupID string) ([]byte, error) {
	return json.Marshal(Frame{Type: FrameJoined, GroupID: groupID})
}

func P2PFrame(data json.RawMessage) ([]byte, error) {
	return json.Marshal(Frame{Type: FrameP2P, Data: data})
}
