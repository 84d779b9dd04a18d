package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/services"
	"social-go/internal/storage"

	"github.com/gorilla/mux"
)

const defaultMaxMemory = 8 << 20 // multipart form in-memory buffer

// UserHandler bundles the user-profile HTTP handlers.
type UserHandler struct {
	userService   services.UserService
	avatarStorage storage.AvatarStorage
	storageCfg    config.StorageConfig
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(userService services.UserService, avatarStorage storage.AvatarStorage, storageCfg config.StorageConfig) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarStorage: avatarStorage,
		storageCfg:    storageCfg,
	}
}

// GetMyProfileHandler handles GET /api/v1/users/me.
func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusInternalServerError)
		return
	}

	user, err := h.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error fetching profile of user %d: %v", userID, err)
		writeJSONError(w, "failed to fetch profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateMyProfileRequest is the body for PUT /api/v1/users/me.
type UpdateMyProfileRequest struct {
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UpdateMyProfileHandler handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusInternalServerError)
		return
	}

	var req UpdateMyProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.userService.UpdateUserProfile(r.Context(), userID, req.Name, req.Bio, req.AvatarURL)
	if err != nil {
		log.Printf("Error updating profile of user %d: %v", userID, err)
		writeJSONError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// GetUserProfileHandler handles GET /users/{userID}, the public profile view.
func (h *UserHandler) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userIDStr, ok := vars["userID"]
	if !ok {
		writeJSONError(w, "missing userID in path", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		writeJSONError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.userService.GetUserProfile(r.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error fetching profile of user %d: %v", userID, err)
		writeJSONError(w, "failed to fetch profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// SearchUsersHandler handles GET /api/v1/users/search?q=...
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, "missing search query 'q'", http.StatusBadRequest)
		return
	}

	users, err := h.userService.SearchUsers(r.Context(), query, userID)
	if err != nil {
		log.Printf("Error searching users for %q: %v", query, err)
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// UploadAvatarHandler handles POST /api/v1/users/me/avatar. The stored file's
// URL is written to the profile.
func (h *UserHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user ID in context", http.StatusInternalServerError)
		return
	}

	maxUploadSize := h.storageCfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		if err.Error() == "http: request body too large" {
			writeJSONError(w, fmt.Sprintf("file too large, maximum is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "failed to parse multipart form", http.StatusBadRequest)
		}
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			writeJSONError(w, "missing 'file' field", http.StatusBadRequest)
		} else {
			writeJSONError(w, "failed to read file", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	mimeType := handler.Header.Get("Content-Type")
	if handler.Size > maxUploadSize {
		writeJSONError(w, fmt.Sprintf("file too large, maximum is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		return
	}

	fileInfo, err := h.avatarStorage.Save(r.Context(), file, handler.Size, handler.Filename, mimeType)
	if err != nil {
		log.Printf("Error storing avatar for user %d: %v", userID, err)
		writeJSONError(w, "failed to store avatar", http.StatusInternalServerError)
		return
	}

	user, err := h.userService.UpdateUserProfile(r.Context(), userID, "", "", fileInfo.URL)
	if err != nil {
		log.Printf("Error updating avatar URL for user %d: %v", userID, err)
		writeJSONError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}
