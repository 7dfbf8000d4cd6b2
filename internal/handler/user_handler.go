package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/middleware"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/user"
)

// UserServiceInterface はユーザー管理サービスのインターフェース。
// テスト時のモック差し替えを可能にする。
type UserServiceInterface interface {
	Create(ctx context.Context, in user.CreateInput) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, in user.UpdateInput) (*model.User, error)
	Delete(ctx context.Context, actorID, id string) error
	List(ctx context.Context, filter repository.UserFilter) ([]model.PublicUser, error)
}

// UserHandler はユーザー管理エンドポイントのハンドラー。管理者専用ルート配下で使用する。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// createUserRequest はPOST /api/usersのリクエストボディ。
type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create はPOST /api/usersを処理する。
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), user.CreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created.Public())
}

// List はGET /api/usersを処理する。
// roleとsearchクエリパラメータで絞り込みできる。
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.UserFilter{
		Role:   model.Role(r.URL.Query().Get("role")),
		Search: r.URL.Query().Get("search"),
	}

	users, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if users == nil {
		users = []model.PublicUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get はGET /api/users/{id}を処理する。
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if found == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, found.Public())
}

// updateUserRequest はPATCH /api/users/{id}のリクエストボディ。
// 指定のないフィールドは変更しない。
type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Update はPATCH /api/users/{id}を処理する。
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	in := user.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		in.Role = &role
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}

// Delete はDELETE /api/users/{id}を処理する。
// 操作者自身のアカウントは削除できない。
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
