package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/middleware"
	"collabnotes-server/internal/notestore"
	"collabnotes-server/internal/service"
	"collabnotes-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	service  *service.UserService
	validate *validator.Validate
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		response.NotFound(w, "User not found")
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			response.Error(w, http.StatusConflict, err.Error())
		case errors.Is(err, notestore.ErrNotFound):
			response.NotFound(w, "User not found")
		default:
			response.InternalError(w, "Failed to update profile")
		}
		return
	}

	response.Success(w, user)
}
