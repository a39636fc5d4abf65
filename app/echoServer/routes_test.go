package echoServer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bikerental/app/echoServer/controller/user"
	"bikerental/model"
	usersvc "bikerental/service/user"
	jwtutil "bikerental/util/jwt"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const secret = "test_secret"

type fakeUsers struct {
	toggled [2]int64
}

func (f *fakeUsers) Me(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Email: "rider@example.com", Role: model.RoleUser, Status: model.UserActive}, nil
}

func (f *fakeUsers) List(context.Context) ([]model.UserSummary, error) {
	return []model.UserSummary{}, nil
}

func (f *fakeUsers) ToggleAdmin(_ context.Context, actor, target int64) (model.Role, error) {
	f.toggled = [2]int64{actor, target}
	return model.RoleAdmin, nil
}

func (f *fakeUsers) SetStatus(context.Context, int64, int64, model.UserStatus) error { return nil }
func (f *fakeUsers) Delete(context.Context, int64, int64) error                      { return nil }

var _ usersvc.Service = (*fakeUsers)(nil)

func newServer(t *testing.T, users *fakeUsers) *echo.Echo {
	t.Helper()
	e := echo.New()
	RegisterMiddlewares(e, nil)
	Register(e, C{
		User:      &user.Controller{Svc: users},
		JWTSecret: secret,
	})
	return e
}

func token(t *testing.T, id int64, role model.Role) string {
	t.Helper()
	tok, err := jwtutil.Issue(secret, id, string(role), 1)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_MeRequiresToken(t *testing.T) {
	e := newServer(t, &fakeUsers{})

	rec := do(e, http.MethodGet, "/v1/users/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/v1/users/me", "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_MeReturnsCaller(t *testing.T) {
	e := newServer(t, &fakeUsers{})

	rec := do(e, http.MethodGet, "/v1/users/me", token(t, 7, model.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data model.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(7), body.Data.ID)
}

func TestRoutes_AdminGate(t *testing.T) {
	users := &fakeUsers{}
	e := newServer(t, users)

	rec := do(e, http.MethodGet, "/v1/admin/users", token(t, 7, model.RoleUser))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/v1/admin/users", token(t, 1, model.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/v1/admin/users/9/toggle-admin", token(t, 1, model.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [2]int64{1, 9}, users.toggled)
}

func TestRoutes_BadID(t *testing.T) {
	e := newServer(t, &fakeUsers{})

	rec := do(e, http.MethodDelete, "/v1/admin/users/abc", token(t, 1, model.RoleAdmin))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
