// Package protocol defines the group sync wire format.
//
// Peer to peer envelope (JSON):
//
//	type:     "JOIN_REQUEST" | "LOBBY_UPDATE" | "START_SESSION" | "VOTE_UPDATE" | "SESSION_FINISH"
//	groupId:  string
//	senderId: string
//	payload:  one shape per type
//
//	JOIN_REQUEST:   { user: {id, name} }
//	LOBBY_UPDATE:   { members: [{id, name}], hostId }
//	START_SESSION:  { restaurants: [Candidate] }
//	VOTE_UPDATE:    { status: "VOTING" | "FINISHED", progress }
//	SESSION_FINISH: { likes: [id], dislikes: [id], name }
//
// Relay frames wrap the envelope for routing only:
//
//	Client -> Relay  { type: "JOIN_GROUP", groupId, user }
//	Client -> Relay  { type: "P2P_MESSAGE", data: <envelope> }
//	Relay -> Client  { type: "JOINED", groupId }
//	Relay -> Client  { type: "P2P_MESSAGE", data: <envelope> }
package protocol
