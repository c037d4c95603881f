package v1

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/service"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockUserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *mockUserService) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, actor domain.Actor, id uuid.UUID, patch domain.UserPatch) (domain.User, error) {
	args := m.Called(ctx, actor, id, patch)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) SetRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error) {
	args := m.Called(ctx, id, roles)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) ListAddresses(ctx context.Context, actor domain.Actor, userID uuid.UUID) ([]domain.Address, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockUserService) AddAddress(ctx context.Context, actor domain.Actor, userID uuid.UUID, address domain.Address) (domain.Address, error) {
	args := m.Called(ctx, actor, userID, address)
	return args.Get(0).(domain.Address), args.Error(1)
}

func (m *mockUserService) DeleteAddress(ctx context.Context, actor domain.Actor, userID, addressID uuid.UUID) error {
	return m.Called(ctx, actor, userID, addressID).Error(0)
}

func newUserRouter(svc UserService) *gin.Engine {
	h := NewUserHandler(svc)
	r, g := newTestRouter()
	r.POST("/users/register", h.HandleRegister)
	r.POST("/users/forgot-password", h.HandleForgotPassword)
	r.POST("/users/reset-password", h.HandleResetPassword)
	g.GET("/users/:userID", h.HandleGetUser)
	g.PATCH("/users/:userID", h.HandleUpdateUser)
	g.POST("/users/:userID/addresses", h.HandleAddAddress)
	g.DELETE("/users/:userID/addresses/:addressID", h.HandleDeleteAddress)

	return r
}

func registerBody() map[string]any {
	return map[string]any{
		"email":     "ana@meddist.com",
		"password":  "Str0ng@Pass",
		"username":  "ana",
		"fullName":  "Ana Souza",
		"telephone": "11999999999",
		"cpf":       "12345678900",
		"addresses": []map[string]string{{
			"cep": "01001-000", "address": "Praca da Se", "number": "1",
			"neighborhood": "Se", "city": "Sao Paulo", "state": "SP",
		}},
	}
}

func TestHandleRegister(t *testing.T) {
	svc := &mockUserService{}
	svc.On("Register", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "ana@meddist.com" && len(u.Addresses) == 1
	})).Return(domain.User{ID: uuid.New(), Email: "ana@meddist.com", Password: "hash"}, nil).Once()
	svc.On("Register", mock.Anything, mock.Anything).Return(domain.User{}, service.ErrUserEmailExists).Once()
	r := newUserRouter(svc)

	w := doJSON(r, http.MethodPost, "/users/register", "", registerBody())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")

	w = doJSON(r, http.MethodPost, "/users/register", "", registerBody())
	assert.Equal(t, http.StatusConflict, w.Code)

	weak := registerBody()
	weak["password"] = "weakpass"
	w = doJSON(r, http.MethodPost, "/users/register", "", weak)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := registerBody()
	long["password"] = "Aa1@" + strings.Repeat("x", 80)
	w = doJSON(r, http.MethodPost, "/users/register", "", long)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleForgotAndResetPassword(t *testing.T) {
	svc := &mockUserService{}
	svc.On("ForgotPassword", mock.Anything, "ghost@meddist.com").Return(service.ErrUserNotFound)
	svc.On("ResetPassword", mock.Anything, "expired", "Str0ng@Pass").Return(service.ErrResetTokenInvalid)
	r := newUserRouter(svc)

	w := doJSON(r, http.MethodPost, "/users/forgot-password", "", map[string]string{"email": "ghost@meddist.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/users/reset-password", "", map[string]string{"token": "expired", "newPassword": "Str0ng@Pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeErr(t, w).Message)

	w = doJSON(r, http.MethodPost, "/users/reset-password", "",
		map[string]string{"token": "valid", "newPassword": "Aa1@" + strings.Repeat("x", 80)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, "valid", mock.Anything)
}

func TestHandleUpdateUser_PassesActor(t *testing.T) {
	caller := uuid.New()
	target := uuid.New()
	name := "ana2"

	svc := &mockUserService{}
	svc.On("UpdateUser", mock.Anything, domain.Actor{ID: caller, Roles: []string{domain.RoleUser}}, target, domain.UserPatch{Username: &name}).
		Return(domain.User{}, service.ErrPermissionDenied)

	w := doJSON(newUserRouter(svc), http.MethodPatch, "/users/"+target.String(),
		bearer(t, caller, domain.RoleUser), map[string]string{"username": name})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have permission to access this resource.", decodeErr(t, w).Message)
	svc.AssertExpectations(t)
}

func TestHandleGetUser(t *testing.T) {
	id := uuid.New()
	svc := &mockUserService{}
	svc.On("GetUser", mock.Anything, id).Return(domain.User{}, service.ErrUserNotFound)
	r := newUserRouter(svc)

	w := doJSON(r, http.MethodGet, "/users/"+id.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/users/"+id.String(), bearer(t, id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/users/not-a-uuid", bearer(t, id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteAddress(t *testing.T) {
	user := uuid.New()
	address := uuid.New()
	svc := &mockUserService{}
	svc.On("DeleteAddress", mock.Anything, mock.Anything, user, address).Return(nil)

	w := doJSON(newUserRouter(svc), http.MethodDelete,
		"/users/"+user.String()+"/addresses/"+address.String(), bearer(t, user, domain.RoleUser), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandleAddAddress(t *testing.T) {
	user := uuid.New()
	svc := &mockUserService{}
	svc.On("AddAddress", mock.Anything, mock.Anything, user, mock.MatchedBy(func(a domain.Address) bool {
		return a.City == "Recife" && a.State == "PE"
	})).Return(domain.Address{ID: uuid.New(), City: "Recife"}, nil).Once()
	r := newUserRouter(svc)

	body := map[string]string{
		"cep": "50030-230", "address": "Rua do Bom Jesus", "number": "10",
		"neighborhood": "Recife Antigo", "city": "Recife", "state": "PE",
	}
	w := doJSON(r, http.MethodPost, "/users/"+user.String()+"/addresses", bearer(t, user, domain.RoleUser), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	delete(body, "city")
	w = doJSON(r, http.MethodPost, "/users/"+user.String()+"/addresses", bearer(t, user, domain.RoleUser), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/users/"+user.String()+"/addresses", bearer(t, user, domain.RoleUser), "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}
