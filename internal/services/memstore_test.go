package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"social-go/internal/models"
	"social-go/internal/storage"
)

// memStore is an in-memory storage.Store used to exercise the services
// without a database. It is not a faithful transaction simulator: InTx runs
// the callback against the same state, which is enough for single-goroutine
// tests of the state machine.
type memStore struct {
	mu sync.Mutex

	users       map[uint]*models.User
	requests    map[uint]*models.FriendRequest
	friendships map[uint]*models.Friendship

	nextUserID       uint
	nextRequestID    uint
	nextFriendshipID uint
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uint]*models.User),
		requests:    make(map[uint]*models.FriendRequest),
		friendships: make(map[uint]*models.Friendship),
	}
}

func (m *memStore) Users() storage.UserRepository                   { return &memUserRepo{m} }
func (m *memStore) FriendRequests() storage.FriendRequestRepository { return &memFriendRequestRepo{m} }
func (m *memStore) Friendships() storage.FriendshipRepository       { return &memFriendshipRepo{m} }

func (m *memStore) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return fn(m)
}

// addUser seeds a user and returns its ID.
func (m *memStore) addUser(name, email string) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	id := m.nextUserID
	user := &models.User{Name: name, Email: email}
	user.ID = id
	user.CreatedAt = time.Now()
	m.users[id] = user
	return id
}

func (m *memStore) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *memStore) friendshipCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.friendships)
}

func (m *memStore) requestByID(id uint) *models.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (m *memStore) allFriendships() []models.Friendship {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Friendship, 0, len(m.friendships))
	for _, f := range m.friendships {
		out = append(out, *f)
	}
	return out
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range r.s.users {
		if u.ID == currentUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.UserBasicInfo{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}, nil
}

func (r *memUserRepo) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]*models.UserBasicInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.UserBasicInfo
	for _, id := range userIDs {
		if u, ok := r.s.users[id]; ok {
			out = append(out, &models.UserBasicInfo{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL})
		}
	}
	return out, nil
}

func (r *memUserRepo) ListIDsExcluding(ctx context.Context, excluded []uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	skip := make(map[uint]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	var ids []uint
	for id := range r.s.users {
		if _, ok := skip[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memFriendRequestRepo struct{ s *memStore }

func (r *memFriendRequestRepo) Create(ctx context.Context, request *models.FriendRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.requests {
		if existing.SenderID == request.SenderID && existing.ReceiverID == request.ReceiverID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.nextRequestID++
	request.ID = r.s.nextRequestID
	request.CreatedAt = time.Now()
	cp := *request
	r.s.requests[request.ID] = &cp
	return nil
}

func (r *memFriendRequestRepo) FindBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.SenderID == senderID && req.ReceiverID == receiverID {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memFriendRequestRepo) FindPendingBySenderReceiver(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.SenderID == senderID && req.ReceiverID == receiverID && req.Status == models.FriendRequestStatusPending {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memFriendRequestRepo) GetByIDForReceiver(ctx context.Context, requestID, receiverID uint) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[requestID]
	if !ok || req.ReceiverID != receiverID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memFriendRequestRepo) UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

func (r *memFriendRequestRepo) ListByParticipant(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.FriendRequest
	for _, req := range r.s.requests {
		if req.SenderID == userID || req.ReceiverID == userID {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memFriendRequestRepo) ContactIDs(ctx context.Context, userID uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uint
	for _, req := range r.s.requests {
		if req.SenderID == userID {
			ids = append(ids, req.ReceiverID)
		}
		if req.ReceiverID == userID {
			ids = append(ids, req.SenderID)
		}
	}
	return ids, nil
}

type memFriendshipRepo struct{ s *memStore }

func (r *memFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.friendships {
		if f.UserID1 == friendship.UserID1 && f.UserID2 == friendship.UserID2 {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.nextFriendshipID++
	friendship.ID = r.s.nextFriendshipID
	friendship.CreatedAt = time.Now()
	cp := *friendship
	r.s.friendships[friendship.ID] = &cp
	return nil
}

func (r *memFriendshipRepo) Exists(ctx context.Context, userID1, userID2 uint) (bool, error) {
	u1, u2 := userID1, userID2
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.friendships {
		if f.UserID1 == u1 && f.UserID2 == u2 {
			return true, nil
		}
	}
	return false, nil
}

func (r *memFriendshipRepo) ListByUser(ctx context.Context, userID uint) ([]models.Friendship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Friendship
	for _, f := range r.s.friendships {
		if f.UserID1 == userID || f.UserID2 == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memFriendshipRepo) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uint
	for _, f := range r.s.friendships {
		if f.UserID1 == userID {
			ids = append(ids, f.UserID2)
		}
		if f.UserID2 == userID {
			ids = append(ids, f.UserID1)
		}
	}
	return ids, nil
}

// recordingProducer captures published messages for assertions.
type recordingProducer struct {
	mu       sync.Mutex
	messages [][]byte
	topics   []string
}

func (p *recordingProducer) SendMessage(ctx context.Context, topic string, key, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, payload)
	return nil
}

func (p *recordingProducer) Close() {}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
