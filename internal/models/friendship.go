package models

import "time"

// Friendship is an established, undirected relationship between two users.
// To keep the unordered pair unique under the composite index, UserID1 is
// always the smaller ID; EnsureCanonicalOrder must be called before insert.
// Rows are created only when a request is accepted and are never mutated.
type Friendship struct {
	BaseModel
	UserID1 uint `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"userId1"`
	UserID2 uint `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"userId2"`
}

// EnsureCanonicalOrder swaps the pair so that UserID1 < UserID2.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserID1 > f.UserID2 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}

// OtherUser returns the friend of userID in this friendship. Callers must pass
// one of the two participants.
func (f *Friendship) OtherUser(userID uint) uint {
	if f.UserID1 == userID {
		return f.UserID2
	}
	return f.UserID1
}

// FriendEntry is a DTO for friend listings: the friend's public info plus the
// time the friendship was established.
type FriendEntry struct {
	Friend *UserBasicInfo `json:"friend"`
	Since  time.Time      `json:"since"`
}
