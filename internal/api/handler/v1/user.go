package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/api/handler/v1/request"
	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/service"
)

type UserService interface {
	Register(ctx context.Context, user domain.User) (domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, actor domain.Actor, id uuid.UUID, patch domain.UserPatch) (domain.User, error)
	SetRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error)
	ListAddresses(ctx context.Context, actor domain.Actor, userID uuid.UUID) ([]domain.Address, error)
	AddAddress(ctx context.Context, actor domain.Actor, userID uuid.UUID, address domain.Address) (domain.Address, error)
	DeleteAddress(ctx context.Context, actor domain.Actor, userID, addressID uuid.UUID) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// renderUserErr maps the user service errors shared by several handlers.
func renderUserErr(ctx *gin.Context, op string, id any, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.RenderErr(ctx, response.ErrNotFound("User with ID %v not found", id))
	case errors.Is(err, service.ErrAddressNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Address not found"))
	case errors.Is(err, service.ErrPermissionDenied):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	case errors.Is(err, service.ErrUserEmailExists):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrUnknownRole):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// HandleRegister godoc
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      201      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/register [post]
func (h *UserHandler) HandleRegister(ctx *gin.Context) {
	req := request.RegisterRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Register(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderUserErr(ctx, "v1.HandleRegister -> h.svc.Register", nil, err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// HandleForgotPassword godoc
// @Summary      Send a password reset link by email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.ForgotPasswordRequest true "request body"
// @Success      200      {object}   response.Message
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/forgot-password [post]
func (h *UserHandler) HandleForgotPassword(ctx *gin.Context) {
	req := request.ForgotPasswordRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	if err := h.svc.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("User with email %s not found", req.Email))
			return
		}

		err = fmt.Errorf("v1.HandleForgotPassword -> h.svc.ForgotPassword -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Password reset email sent"})
}

// HandleResetPassword godoc
// @Summary      Set a new password with a reset token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.ResetPasswordRequest true "request body"
// @Success      200      {object}   response.Message
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/reset-password [post]
func (h *UserHandler) HandleResetPassword(ctx *gin.Context) {
	req := request.ResetPasswordRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	if err := h.svc.ResetPassword(ctx.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleResetPassword -> h.svc.ResetPassword -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Password updated"})
}

// HandleListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200      {array}    domain.User
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users [get]
// @Security BearerAuth
func (h *UserHandler) HandleListUsers(ctx *gin.Context) {
	users, err := h.svc.ListUsers(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListUsers -> h.svc.ListUsers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleGetUser godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        userID   path      string  true  "user ID"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), id)
	if err != nil {
		renderUserErr(ctx, "v1.HandleGetUser -> h.svc.GetUser", id, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetUserByEmail godoc
// @Summary      Get a user by email
// @Tags         users
// @Produce      json
// @Param        email    path      string  true  "email"
// @Success      200      {object}   domain.User
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/email/{email} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUserByEmail(ctx *gin.Context) {
	email := ctx.Param("email")

	user, err := h.svc.GetUserByEmail(ctx.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("User with email %s not found", email))
			return
		}

		err = fmt.Errorf("v1.HandleGetUserByEmail -> h.svc.GetUserByEmail -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateUser godoc
// @Summary      Partially update a user
// @Description  Callers may only update themselves unless they are admins.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID   path      string  true  "user ID"
// @Param        request  body      request.UpdateUserRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID} [patch]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateUser(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	req := request.UpdateUserRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.UpdateUser(ctx.Request.Context(), actor, id, req.ToDomain())
	if err != nil {
		renderUserErr(ctx, "v1.HandleUpdateUser -> h.svc.UpdateUser", id, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleSetRoles godoc
// @Summary      Replace the roles of a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID   path      string  true  "user ID"
// @Param        request  body      request.SetRolesRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/roles [put]
// @Security BearerAuth
func (h *UserHandler) HandleSetRoles(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}

	req := request.SetRolesRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.SetRoles(ctx.Request.Context(), id, req.Roles)
	if err != nil {
		renderUserErr(ctx, "v1.HandleSetRoles -> h.svc.SetRoles", id, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleListAddresses godoc
// @Summary      List the addresses of a user
// @Tags         users
// @Produce      json
// @Param        userID   path      string  true  "user ID"
// @Success      200      {array}    domain.Address
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/addresses [get]
// @Security BearerAuth
func (h *UserHandler) HandleListAddresses(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	addresses, err := h.svc.ListAddresses(ctx.Request.Context(), actor, id)
	if err != nil {
		renderUserErr(ctx, "v1.HandleListAddresses -> h.svc.ListAddresses", id, err)
		return
	}

	ctx.JSON(http.StatusOK, addresses)
}

// HandleAddAddress godoc
// @Summary      Add an address to a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID   path      string  true  "user ID"
// @Param        request  body      request.AddressRequest true "request body"
// @Success      201      {object}   domain.Address
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/addresses [post]
// @Security BearerAuth
func (h *UserHandler) HandleAddAddress(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	req := request.AddressRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	address, err := h.svc.AddAddress(ctx.Request.Context(), actor, id, req.ToDomain())
	if err != nil {
		renderUserErr(ctx, "v1.HandleAddAddress -> h.svc.AddAddress", id, err)
		return
	}

	ctx.JSON(http.StatusCreated, address)
}

// HandleDeleteAddress godoc
// @Summary      Delete an address of a user
// @Tags         users
// @Param        userID      path      string  true  "user ID"
// @Param        addressID   path      string  true  "address ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/addresses/{addressID} [delete]
// @Security BearerAuth
func (h *UserHandler) HandleDeleteAddress(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "userID")
	if !ok {
		return
	}
	addressID, ok := paramUUID(ctx, "addressID")
	if !ok {
		return
	}
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	if err := h.svc.DeleteAddress(ctx.Request.Context(), actor, id, addressID); err != nil {
		renderUserErr(ctx, "v1.HandleDeleteAddress -> h.svc.DeleteAddress", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
