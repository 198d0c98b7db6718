package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/transport/http/dto"
	"github.com/baechuer/admin-console/internal/transport/http/response"
)

type DirectoryService interface {
	List(ctx context.Context) ([]domain.DirectoryUser, error)
	Get(ctx context.Context, id string) (domain.DirectoryUser, error)
	Create(ctx context.Context, in directory.CreateInput) (domain.DirectoryUser, error)
	Update(ctx context.Context, id string, in directory.UpdateInput) (domain.DirectoryUser, error)
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	svc DirectoryService
}

func NewUserHandler(svc DirectoryService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserViews(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Create(r.Context(), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.NewUserView(u))
}

// Update serves both PATCH and PUT; either way only sent fields change.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}
