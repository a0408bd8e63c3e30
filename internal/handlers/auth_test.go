package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
	"github.com/aurora-backend/aurora/internal/sessionstore/memory"
	"github.com/aurora-backend/aurora/internal/service/auth"
	"github.com/aurora-backend/aurora/internal/service/auth/session"
	"github.com/aurora-backend/aurora/internal/service/auth/tokenmanager"
)

// In memory user service. Enough for testing the auth endpoints without a
// database.
type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, email string, password string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	f.nextID++
	user := models.User{
		ID:             f.nextID,
		CreatedAt:      time.Now(),
		Email:          email,
		HashedPassword: password,
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeUsers) VerifyCredentials(_ context.Context, email string, password string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[email]
	if !ok || user.HashedPassword != password {
		return models.User{}, apperrors.ErrWrongCredentials
	}
	return user, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, userID int64) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

// Stubs for the routes this test does not exercise
type stubUserService struct{}

func (stubUserService) ChangePassword(context.Context, int64, string, string) error { return nil }
func (stubUserService) DeleteUser(context.Context, int64) error                     { return nil }
func (stubUserService) RequestPasswordReset(context.Context, string) error          { return nil }
func (stubUserService) ResetPassword(context.Context, string, string) error         { return nil }

type stubTransactionService struct{}

func (stubTransactionService) Create(context.Context, models.Transaction) (models.Transaction, error) {
	return models.Transaction{}, nil
}
func (stubTransactionService) Get(context.Context, int64, int64) (models.Transaction, error) {
	return models.Transaction{}, nil
}
func (stubTransactionService) List(context.Context, int64) ([]models.Transaction, error) {
	return nil, nil
}
func (stubTransactionService) Update(context.Context, int64, int64, repository.TransactionPatch) (models.Transaction, error) {
	return models.Transaction{}, nil
}
func (stubTransactionService) Delete(context.Context, int64, int64) error { return nil }
func (stubTransactionService) Balances(context.Context, int64) ([]models.Balance, error) {
	return nil, nil
}
func (stubTransactionService) GetSettings(context.Context, int64) (models.Settings, error) {
	return models.Settings{}, nil
}
func (stubTransactionService) UpdateSettings(context.Context, int64, models.SettingsPatch) (models.Settings, error) {
	return models.Settings{}, nil
}

func Test_AuthEndpoints(t *testing.T) {
	t.Parallel()

	// Fresh server with production auth services over in memory store
	newServer := func(t *testing.T) (string, *auth.AuthService) {
		t.Helper()

		tokens, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token manager should be created without errors")

		sessions, err := session.NewManager(session.Config{}, memory.New(), tokens, nil)
		require.NoError(t, err, "session manager should be created without errors")

		authService, err := auth.NewService(auth.Config{}, tokens, sessions, newFakeUsers())
		require.NoError(t, err, "auth service should be created without errors")

		router := NewRouter(authService, stubUserService{}, stubTransactionService{}, logger.NewNoOpLogger())
		srv := httptest.NewServer(router)
		t.Cleanup(srv.Close)

		return srv.URL, authService
	}

	// Helper to send request with optional refresh cookie and read it fully
	send := func(t *testing.T, method string, url string, jsonBody string, refresh string) (*http.Response, string) {
		t.Helper()

		var bodyReader io.Reader
		if jsonBody != "" {
			bodyReader = strings.NewReader(jsonBody)
		}
		req, err := http.NewRequest(method, url, bodyReader)
		require.NoError(t, err)
		if jsonBody != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if refresh != "" {
			req.AddCookie(&http.Cookie{Name: "RefreshToken", Value: refresh})
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		return resp, string(body)
	}

	refreshCookie := func(t *testing.T, resp *http.Response) string {
		t.Helper()
		for _, c := range resp.Cookies() {
			if c.Name == "RefreshToken" {
				return c.Value
			}
		}
		t.Fatal("response should carry RefreshToken cookie")
		return ""
	}

	t.Run("register ok", func(t *testing.T) {
		url, _ := newServer(t)

		resp, body := send(t, "POST", url+"/api/user/register", `{"email": "nk@example.com", "password": "StrongEnoughPassword"}`, "")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `{"message": "User registered successfully"}`, body)

		require.Equal(t, 1, len(resp.Cookies()))
		cookie := resp.Cookies()[0]
		require.Equal(t, "RefreshToken", cookie.Name)
		require.True(t, cookie.HttpOnly, "refresh cookie should be HttpOnly")
		require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
		require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")

		header := resp.Header.Get("Authorization")
		require.Contains(t, header, "Bearer ")
	})

	t.Run("register existed user fails", func(t *testing.T) {
		url, _ := newServer(t)

		resp, body := send(t, "POST", url+"/api/user/register", `{"email": "nk@example.com", "password": "StrongEnoughPassword"}`, "")
		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

		resp, body = send(t, "POST", url+"/api/user/register", `{"email": "nk@example.com", "password": "AnotherPassword1"}`, "")

		require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "User already exists"
			}`, body)
		require.Equal(t, 0, len(resp.Cookies()))
	})

	t.Run("login wrong password fails", func(t *testing.T) {
		url, authService := newServer(t)

		_, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		resp, body := send(t, "POST", url+"/api/user/login", `{"email": "nk@example.com", "password": "WrongPassword"}`, "")

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Wrong email or password"
			}`, body)
		require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
	})

	t.Run("refresh rotates tokens", func(t *testing.T) {
		url, authService := newServer(t)

		pair, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		resp, body := send(t, "POST", url+"/api/user/refresh", "", pair.Refresh.Value)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `{"message": "Tokens refreshed successfully"}`, body)

		rotated := refreshCookie(t, resp)
		require.NotEqual(t, pair.Refresh.Value, rotated, "refresh token should be changed after refresh")
		require.NotEqual(t, "Bearer "+pair.Access.Value, resp.Header.Get("Authorization"), "access token should be changed after refresh")
	})

	t.Run("refresh twice with same token fails", func(t *testing.T) {
		url, authService := newServer(t)

		pair, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		resp, body := send(t, "POST", url+"/api/user/refresh", "", pair.Refresh.Value)
		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

		resp, body = send(t, "POST", url+"/api/user/refresh", "", pair.Refresh.Value)

		require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Invalid refresh token"
			}`, body)
	})

	t.Run("refresh without cookie fails", func(t *testing.T) {
		url, _ := newServer(t)

		resp, body := send(t, "POST", url+"/api/user/refresh", "", "")

		require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Refresh token not provided"
			}`, body)
	})

	t.Run("logout terminates the session", func(t *testing.T) {
		url, authService := newServer(t)

		pair, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		req, err := http.NewRequest("POST", url+"/api/user/logout", nil)
		require.NoError(t, err)
		authService.SetTokenPairToRequest(req, pair)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.JSONEq(t, `{"message": "User logged out successfully"}`, string(body))

		// The refresh token must be unusable after logout
		resp, bodyStr := send(t, "POST", url+"/api/user/refresh", "", pair.Refresh.Value)
		require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", bodyStr)
	})

	t.Run("logout without access token fails", func(t *testing.T) {
		url, authService := newServer(t)

		pair, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		resp, body := send(t, "POST", url+"/api/user/logout", "", pair.Refresh.Value)

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
	})

	t.Run("invalidate sessions kills every device", func(t *testing.T) {
		url, authService := newServer(t)

		first, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)
		second, err := authService.Login(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		resp, body := send(t, "POST", url+"/api/user/sessions/invalidate", "", second.Refresh.Value)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `{"message": "All sessions invalidated"}`, body)

		for _, refresh := range []string{first.Refresh.Value, second.Refresh.Value} {
			resp, body := send(t, "POST", url+"/api/user/refresh", "", refresh)
			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "refresh should fail after invalidation. Body: %s", body)
		}
	})

	t.Run("expired access token gets forbidden with hint", func(t *testing.T) {
		url, _ := newServer(t)

		// Same secrets but access tokens are born expired
		expiredTokens, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessTTL:     -time.Minute,
		})
		require.NoError(t, err)
		expired, err := expiredTokens.IssueAccess(1)
		require.NoError(t, err)

		req, err := http.NewRequest("GET", url+"/api/user/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+expired.Value)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Access token expired"
			}`, string(body))
	})

	t.Run("me returns the authenticated user", func(t *testing.T) {
		url, authService := newServer(t)

		pair, err := authService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		req, err := http.NewRequest("GET", url+"/api/user/me", nil)
		require.NoError(t, err)
		authService.SetTokenPairToRequest(req, pair)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), `"email":"nk@example.com"`)
	})
}
