package storage

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over a single underlying database handle and
// provides the transactional boundary for check-then-act sequences. Mutations
// that span a read followed by dependent writes (duplicate checks before
// request creation, the accept path's status update plus friendship insert)
// must run inside InTx so that concurrent calls cannot observe or produce
// partial state.
type Store interface {
	Users() UserRepository
	FriendRequests() FriendRequestRepository
	Friendships() FriendshipRepository

	// InTx runs fn against a Store whose repositories share one transaction.
	// An error from fn rolls everything back.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db             *gorm.DB
	userRepo       UserRepository
	friendReqRepo  FriendRequestRepository
	friendshipRepo FriendshipRepository
}

// NewGormStore creates a Store backed by the given gorm database handle.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:             db,
		userRepo:       NewGormUserRepository(db),
		friendReqRepo:  NewGormFriendRequestRepository(db),
		friendshipRepo: NewGormFriendshipRepository(db),
	}
}

func (s *gormStore) Users() UserRepository                   { return s.userRepo }
func (s *gormStore) FriendRequests() FriendRequestRepository { return s.friendReqRepo }
func (s *gormStore) Friendships() FriendshipRepository       { return s.friendshipRepo }

func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
