package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"social-go/internal/models"
)

// FriendRequestRepository defines the interface for friend request data
// operations. Lookups by (sender, receiver) are directed: the A->B row is
// distinct from the B->A row.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	// FindBySenderReceiver returns the request sent from senderID to
	// receiverID regardless of status, or nil when none exists.
	FindBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	// FindPendingBySenderReceiver is FindBySenderReceiver restricted to
	// pending requests.
	FindPendingBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	// GetByIDForReceiver returns the request with the given ID only when
	// receiverID is its receiver; otherwise gorm.ErrRecordNotFound.
	GetByIDForReceiver(ctx context.Context, requestID, receiverID uint) (*models.FriendRequest, error)
	UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error
	// ListByParticipant returns every request in which the user appears as
	// sender or receiver, newest first.
	ListByParticipant(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	// ContactIDs returns the IDs of all users the given user has any request
	// relationship with, in either direction and in any status.
	ContactIDs(ctx context.Context, userID uint) ([]uint, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a GORM-based FriendRequestRepository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormFriendRequestRepository) FindBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Absence is not an error here
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) FindPendingBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Where("status = ?", models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetByIDForReceiver(ctx context.Context, requestID, receiverID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND receiver_id = ?", requestID, receiverID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error
}

func (r *gormFriendRequestRepository) ListByParticipant(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ContactIDs queries both foreign-key columns; a resolved request still counts
// as contact.
func (r *gormFriendRequestRepository) ContactIDs(ctx context.Context, userID uint) ([]uint, error) {
	var sentTo []uint
	err := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("sender_id = ?", userID).
		Pluck("receiver_id", &sentTo).Error
	if err != nil {
		return nil, err
	}

	var receivedFrom []uint
	err = r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("receiver_id = ?", userID).
		Pluck("sender_id", &receivedFrom).Error
	if err != nil {
		return nil, err
	}

	return append(sentTo, receivedFrom...), nil
}
