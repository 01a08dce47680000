package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/service"
)

// multipartOverhead is the slack allowed above the avatar size for form
// boundaries and headers.
const multipartOverhead = 64 << 10

// UserHandler handles public profiles and the caller's own profile.
type UserHandler struct {
	userService   *service.UserService
	avatarService *service.AvatarService
	logger        zerolog.Logger
}

// NewUserHandler creates a new UserHandler. avatarService may be nil, in
// which case the upload route is not mounted.
func NewUserHandler(userService *service.UserService, avatarService *service.AvatarService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
		logger:        logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes mounts the user routes. authMiddleware guards the
// caller-scoped routes.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/{username}", h.GetProfile)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Put("/profile", h.UpdateProfile)
		r.Put("/username", h.UpdateUsername)
		if h.avatarService != nil {
			r.Post("/avatar", h.UploadAvatar)
		}
	})
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Theme  *string `json:"theme"`
	Avatar *string `json:"avatar"`
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

// GetProfile handles GET /api/user/{username} and GET /u/{username}.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	out, err := h.userService.GetPublicProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	links := out.Links
	if links == nil {
		links = []*domain.Link{}
	}
	writeSuccess(w, http.StatusOK, envelope{
		"user":  out.User,
		"links": links,
	})
}

// UpdateProfile handles PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), service.UpdateProfileInput{
		Caller: caller,
		Patch: domain.ProfilePatch{
			Name:   req.Name,
			Bio:    req.Bio,
			Avatar: req.Avatar,
			Theme:  req.Theme,
		},
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// UpdateUsername handles PUT /api/user/username.
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateUsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.userService.UpdateUsername(r.Context(), service.UpdateUsernameInput{
		Caller:   caller,
		Username: req.Username,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Username updated successfully",
		"user":    user,
	})
}

// UploadAvatar handles POST /api/user/avatar with a multipart "avatar" file.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	maxSize := h.avatarService.MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	file, _, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeServiceError(w, r, h.logger, service.ErrAvatarTooLarge)
		default:
			writeServiceError(w, r, h.logger, service.ErrAvatarMissing)
		}
		return
	}
	defer file.Close()

	user, err := h.avatarService.Upload(r.Context(), service.UploadAvatarInput{
		Caller:  caller,
		Content: file,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Avatar updated successfully",
		"user":    user,
	})
}
