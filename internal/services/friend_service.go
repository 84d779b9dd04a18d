package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"

	"social-go/internal/config"
	appkafka "social-go/internal/kafka"
	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrSelfRequest         = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends      = errors.New("you are already friends with this user")
	ErrDuplicateRequest    = errors.New("a friend request to this user already exists")
	ErrRequestNotFound     = errors.New("friend request not found")
	ErrAlreadyResolved     = errors.New("this friend request has already been resolved")
	ErrInvalidAction       = errors.New("invalid action, use 'accept' or 'reject'")
	ErrDuplicateFriendship = errors.New("friendship already exists")
)

// Respond actions accepted by RespondToRequest.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

const defaultSuggestionLimit = 5

// SendRequestResult is the outcome of SendRequest. When AutoAccepted is set,
// Request is the opposite request that was resolved instead of a new row.
type SendRequestResult struct {
	Request      *models.FriendRequest `json:"request"`
	AutoAccepted bool                  `json:"autoAccepted"`
}

// FriendService governs the friend-request state machine, friendship
// materialization and friend suggestions.
type FriendService interface {
	SendRequest(ctx context.Context, senderID, receiverID uint) (*SendRequestResult, error)
	RespondToRequest(ctx context.Context, responderID, requestID uint, action string) (*models.FriendRequest, error)
	ListFriends(ctx context.Context, userID uint) ([]models.FriendEntry, error)
	ListRequests(ctx context.Context, userID uint) ([]models.FriendRequestDetail, error)
	SuggestFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error)
}

type friendService struct {
	store      storage.Store
	producer   appkafka.MessageProducer
	kafkaCfg   config.KafkaConfig
	suggestMax int
	rngMu      sync.Mutex
	rng        *rand.Rand
}

// NewFriendService creates a FriendService. producer may be nil, in which case
// no events are published. rng is the randomness source for suggestions; pass
// a seeded instance for deterministic behavior, or nil for a time-seeded one.
func NewFriendService(
	store storage.Store,
	producer appkafka.MessageProducer,
	kafkaCfg config.KafkaConfig,
	suggestCfg config.SuggestionsConfig,
	rng *rand.Rand,
) FriendService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	limit := suggestCfg.Limit
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	return &friendService{
		store:      store,
		producer:   producer,
		kafkaCfg:   kafkaCfg,
		suggestMax: limit,
		rng:        rng,
	}
}

// SendRequest runs the friend-request state machine for sender -> receiver.
//
// A pending request in the opposite direction is resolved in place: the two
// users requested each other, so the opposite row is accepted and the
// friendship is materialized in the same transaction, with no new row created.
// An existing sender -> receiver row of any status blocks the send, so a
// rejected request also blocks a resend.
func (s *friendService) SendRequest(ctx context.Context, senderID, receiverID uint) (*SendRequestResult, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	var result *SendRequestResult
	var event *appkafka.FriendEvent

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.Users().GetByID(ctx, receiverID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to check receiver %d: %w", receiverID, err)
		}

		areFriends, err := tx.Friendships().Exists(ctx, senderID, receiverID)
		if err != nil {
			return fmt.Errorf("failed to check friendship between %d and %d: %w", senderID, receiverID, err)
		}
		if areFriends {
			return ErrAlreadyFriends
		}

		existing, err := tx.FriendRequests().FindBySenderReceiver(ctx, senderID, receiverID)
		if err != nil {
			return fmt.Errorf("failed to check existing request %d -> %d: %w", senderID, receiverID, err)
		}
		if existing != nil {
			return ErrDuplicateRequest
		}

		opposite, err := tx.FriendRequests().FindPendingBySenderReceiver(ctx, receiverID, senderID)
		if err != nil {
			return fmt.Errorf("failed to check opposite request %d -> %d: %w", receiverID, senderID, err)
		}
		if opposite != nil {
			// Mutual request: accept the opposite row and materialize the
			// friendship atomically with it.
			if err := tx.FriendRequests().UpdateStatus(ctx, opposite.ID, models.FriendRequestStatusAccepted); err != nil {
				return fmt.Errorf("failed to auto-accept request %d: %w", opposite.ID, err)
			}
			if err := s.materializeFriendship(ctx, tx, senderID, receiverID); err != nil {
				return err
			}
			opposite.Status = models.FriendRequestStatusAccepted
			result = &SendRequestResult{Request: opposite, AutoAccepted: true}
			event = s.newEvent(appkafka.FriendEventRequestAccepted, opposite)
			return nil
		}

		request := &models.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.FriendRequestStatusPending,
		}
		if err := tx.FriendRequests().Create(ctx, request); err != nil {
			return fmt.Errorf("failed to create friend request %d -> %d: %w", senderID, receiverID, err)
		}
		result = &SendRequestResult{Request: request}
		event = s.newEvent(appkafka.FriendEventRequestCreated, request)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, event)
	return result, nil
}

// RespondToRequest accepts or rejects a pending request. Only the declared
// receiver may respond; anyone else gets ErrRequestNotFound, the same answer
// as for a request that does not exist.
func (s *friendService) RespondToRequest(ctx context.Context, responderID, requestID uint, action string) (*models.FriendRequest, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, ErrInvalidAction
	}

	var updated *models.FriendRequest
	var event *appkafka.FriendEvent

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		request, err := tx.FriendRequests().GetByIDForReceiver(ctx, requestID, responderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to retrieve friend request %d: %w", requestID, err)
		}
		if !request.IsPending() {
			return ErrAlreadyResolved
		}

		switch action {
		case ActionAccept:
			if err := tx.FriendRequests().UpdateStatus(ctx, request.ID, models.FriendRequestStatusAccepted); err != nil {
				return fmt.Errorf("failed to accept request %d: %w", request.ID, err)
			}
			if err := s.materializeFriendship(ctx, tx, request.SenderID, request.ReceiverID); err != nil {
				return err
			}
			request.Status = models.FriendRequestStatusAccepted
			event = s.newEvent(appkafka.FriendEventRequestAccepted, request)
		case ActionReject:
			if err := tx.FriendRequests().UpdateStatus(ctx, request.ID, models.FriendRequestStatusRejected); err != nil {
				return fmt.Errorf("failed to reject request %d: %w", request.ID, err)
			}
			request.Status = models.FriendRequestStatusRejected
			event = s.newEvent(appkafka.FriendEventRequestRejected, request)
		}

		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, event)
	return updated, nil
}

// materializeFriendship inserts the canonical friendship row for the pair.
// The existence re-check runs inside the caller's transaction; the composite
// unique index backstops any race the check misses.
func (s *friendService) materializeFriendship(ctx context.Context, tx storage.Store, aID, bID uint) error {
	exists, err := tx.Friendships().Exists(ctx, aID, bID)
	if err != nil {
		return fmt.Errorf("failed to check friendship between %d and %d: %w", aID, bID, err)
	}
	if exists {
		return ErrDuplicateFriendship
	}

	friendship := &models.Friendship{UserID1: aID, UserID2: bID}
	friendship.EnsureCanonicalOrder()
	if err := tx.Friendships().Create(ctx, friendship); err != nil {
		return fmt.Errorf("failed to create friendship between %d and %d: %w", aID, bID, err)
	}
	return nil
}

// ListFriends returns the user's friends with the time each friendship was
// established.
func (s *friendService) ListFriends(ctx context.Context, userID uint) ([]models.FriendEntry, error) {
	friendships, err := s.store.Friendships().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships of user %d: %w", userID, err)
	}
	if len(friendships) == 0 {
		return []models.FriendEntry{}, nil
	}

	friendIDs := make([]uint, 0, len(friendships))
	for i := range friendships {
		friendIDs = append(friendIDs, friendships[i].OtherUser(userID))
	}

	infos, err := s.store.Users().GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend info for user %d: %w", userID, err)
	}
	infoByID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		infoByID[info.ID] = info
	}

	entries := make([]models.FriendEntry, 0, len(friendships))
	for i := range friendships {
		friendID := friendships[i].OtherUser(userID)
		info, ok := infoByID[friendID]
		if !ok {
			continue
		}
		entries = append(entries, models.FriendEntry{
			Friend: info,
			Since:  friendships[i].CreatedAt,
		})
	}
	return entries, nil
}

// ListRequests returns every request the user sent or received, enriched with
// both parties' public info.
func (s *friendService) ListRequests(ctx context.Context, userID uint) ([]models.FriendRequestDetail, error) {
	requests, err := s.store.FriendRequests().ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests of user %d: %w", userID, err)
	}
	if len(requests) == 0 {
		return []models.FriendRequestDetail{}, nil
	}

	idSet := make(map[uint]struct{}, len(requests)*2)
	for i := range requests {
		idSet[requests[i].SenderID] = struct{}{}
		idSet[requests[i].ReceiverID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	infos, err := s.store.Users().GetMultipleBasicInfoByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch participant info: %w", err)
	}
	infoByID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		infoByID[info.ID] = info
	}

	details := make([]models.FriendRequestDetail, 0, len(requests))
	for i := range requests {
		details = append(details, models.FriendRequestDetail{
			FriendRequest: requests[i],
			Sender:        infoByID[requests[i].SenderID],
			Receiver:      infoByID[requests[i].ReceiverID],
		})
	}
	return details, nil
}

// SuggestFriends returns a uniform random sample of users the given user has
// no relationship with: not self, not a friend, and no request in either
// direction regardless of status. The read runs outside any transaction; a
// momentarily stale exclusion set is acceptable.
func (s *friendService) SuggestFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.store.Friendships().FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect friend IDs of user %d: %w", userID, err)
	}
	contactIDs, err := s.store.FriendRequests().ContactIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect contacted IDs of user %d: %w", userID, err)
	}

	excluded := make([]uint, 0, len(friendIDs)+len(contactIDs)+1)
	excluded = append(excluded, userID)
	excluded = append(excluded, friendIDs...)
	excluded = append(excluded, contactIDs...)

	candidates, err := s.store.Users().ListIDsExcluding(ctx, excluded)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestion candidates for user %d: %w", userID, err)
	}

	n := s.suggestMax
	if len(candidates) < n {
		n = len(candidates)
	}
	if n == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	// Shuffle-prefix gives a uniform sample without replacement.
	s.rngMu.Lock()
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	s.rngMu.Unlock()

	return s.store.Users().GetMultipleBasicInfoByIDs(ctx, candidates[:n])
}

func (s *friendService) newEvent(eventType string, request *models.FriendRequest) *appkafka.FriendEvent {
	return &appkafka.FriendEvent{
		Type:       eventType,
		RequestID:  request.ID,
		SenderID:   request.SenderID,
		ReceiverID: request.ReceiverID,
		Timestamp:  time.Now(),
	}
}

// publishEvent sends the event to the friend-events topic after the store has
// committed. Delivery is best effort: a publish failure only skews the badge
// counters, so it is logged and never propagated.
func (s *friendService) publishEvent(ctx context.Context, event *appkafka.FriendEvent) {
	if s.producer == nil || event == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling friend event %+v: %v", event, err)
		return
	}
	key := []byte(fmt.Sprintf("%d-%d", event.SenderID, event.ReceiverID))
	if err := s.producer.SendMessage(ctx, s.kafkaCfg.FriendEventsTopic, key, payload); err != nil {
		log.Printf("Error publishing friend event to topic %s: %v", s.kafkaCfg.FriendEventsTopic, err)
	}
}
