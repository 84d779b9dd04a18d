package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"social-go/internal/middleware"
	"social-go/internal/models"
	appredis "social-go/internal/redis"
	"social-go/internal/services"

	"github.com/gorilla/mux"
)

// FriendHandler bundles the friend-graph HTTP handlers.
type FriendHandler struct {
	friendService  services.FriendService
	pendingCounter appredis.PendingCounter
}

// NewFriendHandler creates a new FriendHandler. pendingCounter may be nil, in
// which case the pending-count endpoint falls back to zero.
func NewFriendHandler(friendService services.FriendService, pendingCounter appredis.PendingCounter) *FriendHandler {
	return &FriendHandler{
		friendService:  friendService,
		pendingCounter: pendingCounter,
	}
}

// SendFriendRequestPayload is the body for POST /api/v1/friend-requests.
type SendFriendRequestPayload struct {
	ReceiverID uint `json:"receiverId"`
}

// SendFriendRequestHandler handles POST /api/v1/friend-requests.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
		return
	}

	var payload SendFriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.ReceiverID == 0 {
		writeJSONError(w, "missing receiverId", http.StatusBadRequest)
		return
	}

	result, err := h.friendService.SendRequest(r.Context(), senderID, payload.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRequest), errors.Is(err, services.ErrAlreadyFriends):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrDuplicateRequest), errors.Is(err, services.ErrDuplicateFriendship):
			writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error sending friend request from %d to %d: %v", senderID, payload.ReceiverID, err)
			writeJSONError(w, "failed to send friend request", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, result)
}

// RespondToFriendRequestHandler handles
// POST /api/v1/friend-requests/{requestID}/{accept|reject}. The action is
// carried by the route, mirroring the two registered paths.
func (h *FriendHandler) RespondToFriendRequestHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responderID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
			return
		}

		vars := mux.Vars(r)
		requestIDStr, ok := vars["requestID"]
		if !ok {
			writeJSONError(w, "missing requestID in path", http.StatusBadRequest)
			return
		}
		requestID, err := strconv.ParseUint(requestIDStr, 10, 32)
		if err != nil {
			writeJSONError(w, "invalid requestID", http.StatusBadRequest)
			return
		}

		request, err := h.friendService.RespondToRequest(r.Context(), responderID, uint(requestID), action)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrRequestNotFound):
				writeJSONError(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, services.ErrAlreadyResolved), errors.Is(err, services.ErrInvalidAction):
				writeJSONError(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, services.ErrDuplicateFriendship):
				writeJSONError(w, err.Error(), http.StatusConflict)
			default:
				log.Printf("Error responding to friend request %d by user %d: %v", requestID, responderID, err)
				writeJSONError(w, "failed to process friend request", http.StatusInternalServerError)
			}
			return
		}
		writeJSONResponse(w, http.StatusOK, request)
	}
}

// ListFriendsHandler handles GET /api/v1/friends.
func (h *FriendHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching friends list for user %d: %v", userID, err)
		writeJSONError(w, "failed to fetch friends", http.StatusInternalServerError)
		return
	}
	if friends == nil {
		friends = []models.FriendEntry{}
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// ListRequestsHandler handles GET /api/v1/friend-requests.
func (h *FriendHandler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
		return
	}

	requests, err := h.friendService.ListRequests(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching friend requests for user %d: %v", userID, err)
		writeJSONError(w, "failed to fetch friend requests", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []models.FriendRequestDetail{}
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// PendingCountResponse is returned by the pending-count endpoint.
type PendingCountResponse struct {
	Pending int64 `json:"pending"`
}

// PendingCountHandler handles GET /api/v1/friend-requests/pending-count. The
// value comes from the event-fed counter and may briefly lag the store.
func (h *FriendHandler) PendingCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
		return
	}

	var count int64
	if h.pendingCounter != nil {
		var err error
		count, err = h.pendingCounter.Get(r.Context(), userID)
		if err != nil {
			log.Printf("Error reading pending counter for user %d: %v", userID, err)
			writeJSONError(w, "failed to fetch pending count", http.StatusInternalServerError)
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, PendingCountResponse{Pending: count})
}

// SuggestionsHandler handles GET /api/v1/friends/suggestions.
func (h *FriendHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusUnauthorized)
		return
	}

	suggestions, err := h.friendService.SuggestFriends(r.Context(), userID)
	if err != nil {
		log.Printf("Error computing suggestions for user %d: %v", userID, err)
		writeJSONError(w, "failed to compute suggestions", http.StatusInternalServerError)
		return
	}
	if suggestions == nil {
		suggestions = []*models.UserBasicInfo{}
	}
	writeJSONResponse(w, http.StatusOK, suggestions)
}
