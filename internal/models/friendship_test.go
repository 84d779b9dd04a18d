package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCanonicalOrder(t *testing.T) {
	f := Friendship{UserID1: 9, UserID2: 3}
	f.EnsureCanonicalOrder()
	assert.Equal(t, uint(3), f.UserID1)
	assert.Equal(t, uint(9), f.UserID2)

	// Already ordered pairs are untouched.
	f.EnsureCanonicalOrder()
	assert.Equal(t, uint(3), f.UserID1)
	assert.Equal(t, uint(9), f.UserID2)
}

func TestFriendshipOtherUser(t *testing.T) {
	f := Friendship{UserID1: 3, UserID2: 9}
	assert.Equal(t, uint(9), f.OtherUser(3))
	assert.Equal(t, uint(3), f.OtherUser(9))
}

func TestFriendRequestOtherParty(t *testing.T) {
	r := FriendRequest{SenderID: 1, ReceiverID: 2}
	assert.Equal(t, uint(2), r.OtherParty(1))
	assert.Equal(t, uint(1), r.OtherParty(2))
}

func TestFriendRequestIsPending(t *testing.T) {
	r := FriendRequest{Status: FriendRequestStatusPending}
	assert.True(t, r.IsPending())
	r.Status = FriendRequestStatusAccepted
	assert.False(t, r.IsPending())
	r.Status = FriendRequestStatusRejected
	assert.False(t, r.IsPending())
}
