package kafka

import "time"

// Friend-event types published to the friend-events topic after the
// relationship store has committed.
const (
	FriendEventRequestCreated  = "request.created"
	FriendEventRequestAccepted = "request.accepted"
	FriendEventRequestRejected = "request.rejected"
)

// FriendEvent is the payload published for every friend-request transition.
// SenderID and ReceiverID always describe the request row, not the actor: on
// an auto-accept, the event refers to the opposite request that was resolved.
type FriendEvent struct {
	Type       string    `json:"type"`
	RequestID  uint      `json:"requestId"`
	SenderID   uint      `json:"senderId"`
	ReceiverID uint      `json:"receiverId"`
	Timestamp  time.Time `json:"timestamp"`
}
