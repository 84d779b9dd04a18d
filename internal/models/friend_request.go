package models

// FriendRequestStatus is the state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal from SenderID to ReceiverID.
// At most one row exists per ordered (sender, receiver) pair, regardless of
// status: rows are kept after resolution as an audit trail and a later resend
// is blocked by the same uniqueness rule. SenderID is never equal to ReceiverID.
type FriendRequest struct {
	BaseModel
	SenderID   uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"senderId"`
	ReceiverID uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"receiverId"`
	Status     FriendRequestStatus `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
}

// IsPending reports whether the request is still awaiting a response.
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestStatusPending
}

// OtherParty returns the participant that is not userID. Callers must pass one
// of the two participants.
func (r *FriendRequest) OtherParty(userID uint) uint {
	if r.SenderID == userID {
		return r.ReceiverID
	}
	return r.SenderID
}

// FriendRequestDetail is a DTO pairing a request with both parties' public info.
type FriendRequestDetail struct {
	FriendRequest
	Sender   *UserBasicInfo `json:"sender"`
	Receiver *UserBasicInfo `json:"receiver"`
}
