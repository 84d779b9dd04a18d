package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/services"
)

// stubFriendService returns canned results per method.
type stubFriendService struct {
	sendResult    *services.SendRequestResult
	sendErr       error
	respondResult *models.FriendRequest
	respondErr    error
	friends       []models.FriendEntry
	requests      []models.FriendRequestDetail
	suggestions   []*models.UserBasicInfo
	listErr       error
}

func (s *stubFriendService) SendRequest(ctx context.Context, senderID, receiverID uint) (*services.SendRequestResult, error) {
	return s.sendResult, s.sendErr
}

func (s *stubFriendService) RespondToRequest(ctx context.Context, responderID, requestID uint, action string) (*models.FriendRequest, error) {
	return s.respondResult, s.respondErr
}

func (s *stubFriendService) ListFriends(ctx context.Context, userID uint) ([]models.FriendEntry, error) {
	return s.friends, s.listErr
}

func (s *stubFriendService) ListRequests(ctx context.Context, userID uint) ([]models.FriendRequestDetail, error) {
	return s.requests, s.listErr
}

func (s *stubFriendService) SuggestFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	return s.suggestions, s.listErr
}

// fakeCounter is an in-memory PendingCounter.
type fakeCounter struct {
	counts map[uint]int64
}

func (c *fakeCounter) Incr(ctx context.Context, userID uint) error {
	if c.counts == nil {
		c.counts = make(map[uint]int64)
	}
	c.counts[userID]++
	return nil
}

func (c *fakeCounter) Decr(ctx context.Context, userID uint) error {
	if c.counts[userID] > 0 {
		c.counts[userID]--
	}
	return nil
}

func (c *fakeCounter) Get(ctx context.Context, userID uint) (int64, error) {
	return c.counts[userID], nil
}

func authenticatedRequest(t *testing.T, method, target string, body []byte, userID uint) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestSendFriendRequestHandler_Created(t *testing.T) {
	request := &models.FriendRequest{SenderID: 1, ReceiverID: 2, Status: models.FriendRequestStatusPending}
	svc := &stubFriendService{sendResult: &services.SendRequestResult{Request: request}}
	h := NewFriendHandler(svc, nil)

	body, _ := json.Marshal(SendFriendRequestPayload{ReceiverID: 2})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/friend-requests", body, 1)
	rec := httptest.NewRecorder()

	h.SendFriendRequestHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var result services.SendRequestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.AutoAccepted)
	assert.Equal(t, uint(2), result.Request.ReceiverID)
}

func TestSendFriendRequestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"self request", services.ErrSelfRequest, http.StatusBadRequest},
		{"already friends", services.ErrAlreadyFriends, http.StatusBadRequest},
		{"duplicate request", services.ErrDuplicateRequest, http.StatusConflict},
		{"receiver not found", services.ErrUserNotFound, http.StatusNotFound},
		{"internal error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFriendHandler(&stubFriendService{sendErr: tc.err}, nil)

			body, _ := json.Marshal(SendFriendRequestPayload{ReceiverID: 2})
			req := authenticatedRequest(t, http.MethodPost, "/api/v1/friend-requests", body, 1)
			rec := httptest.NewRecorder()

			h.SendFriendRequestHandler(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestSendFriendRequestHandler_MissingReceiver(t *testing.T) {
	h := NewFriendHandler(&stubFriendService{}, nil)

	body, _ := json.Marshal(SendFriendRequestPayload{})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/friend-requests", body, 1)
	rec := httptest.NewRecorder()

	h.SendFriendRequestHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendFriendRequestHandler_Unauthenticated(t *testing.T) {
	h := NewFriendHandler(&stubFriendService{}, nil)

	body, _ := json.Marshal(SendFriendRequestPayload{ReceiverID: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/friend-requests", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SendFriendRequestHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRespondToFriendRequestHandler_Accept(t *testing.T) {
	resolved := &models.FriendRequest{SenderID: 2, ReceiverID: 1, Status: models.FriendRequestStatusAccepted}
	h := NewFriendHandler(&stubFriendService{respondResult: resolved}, nil)

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/friend-requests/5/accept", nil, 1)
	req = mux.SetURLVars(req, map[string]string{"requestID": "5"})
	rec := httptest.NewRecorder()

	h.RespondToFriendRequestHandler(services.ActionAccept)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.FriendRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.FriendRequestStatusAccepted, got.Status)
}

func TestRespondToFriendRequestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", services.ErrRequestNotFound, http.StatusNotFound},
		{"already resolved", services.ErrAlreadyResolved, http.StatusBadRequest},
		{"duplicate friendship", services.ErrDuplicateFriendship, http.StatusConflict},
		{"internal error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFriendHandler(&stubFriendService{respondErr: tc.err}, nil)

			req := authenticatedRequest(t, http.MethodPost, "/api/v1/friend-requests/5/accept", nil, 1)
			req = mux.SetURLVars(req, map[string]string{"requestID": "5"})
			rec := httptest.NewRecorder()

			h.RespondToFriendRequestHandler(services.ActionAccept)(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestListFriendsHandler_EmptyIsJSONArray(t *testing.T) {
	h := NewFriendHandler(&stubFriendService{}, nil)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/friends", nil, 1)
	rec := httptest.NewRecorder()

	h.ListFriendsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPendingCountHandler(t *testing.T) {
	counter := &fakeCounter{}
	require.NoError(t, counter.Incr(context.Background(), 1))
	require.NoError(t, counter.Incr(context.Background(), 1))
	h := NewFriendHandler(&stubFriendService{}, counter)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/friend-requests/pending-count", nil, 1)
	rec := httptest.NewRecorder()

	h.PendingCountHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PendingCountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Pending)
}

func TestPendingCountHandler_NilCounterReturnsZero(t *testing.T) {
	h := NewFriendHandler(&stubFriendService{}, nil)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/friend-requests/pending-count", nil, 1)
	rec := httptest.NewRecorder()

	h.PendingCountHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PendingCountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Pending)
}

func TestSuggestionsHandler(t *testing.T) {
	suggestions := []*models.UserBasicInfo{
		{ID: 4, Name: "Dave"},
		{ID: 5, Name: "Eve"},
	}
	h := NewFriendHandler(&stubFriendService{suggestions: suggestions}, nil)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/friends/suggestions", nil, 1)
	rec := httptest.NewRecorder()

	h.SuggestionsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []*models.UserBasicInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
