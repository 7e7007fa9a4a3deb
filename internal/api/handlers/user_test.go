package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/irfndi/fdtrend-go/internal/api/handlers/testmocks"
	"github.com/irfndi/fdtrend-go/internal/config"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecurity = config.SecurityConfig{
	JWTSecret:  "test-secret",
	JWTExpiry:  "1h",
	BcryptCost: bcrypt.MinCost,
}

func newUserHandler() (*UserHandler, *testmocks.MockUserStore, *testmocks.MockProfileCache, *middleware.AuthMiddleware) {
	store := new(testmocks.MockUserStore)
	cache := new(testmocks.MockProfileCache)
	auth := middleware.NewAuthMiddleware(testSecurity.JWTSecret)
	return NewUserHandler(store, cache, auth, testSecurity, nullLogger()), store, cache, auth
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserHandler_RegisterUser(t *testing.T) {
	t.Run("creates user and returns token", func(t *testing.T) {
		handler, store, _, auth := newUserHandler()
		store.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)
		store.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "asha@example.com" &&
				u.Name == "Asha" &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
		})).Run(func(args mock.Arguments) {
			user := args.Get(1).(*models.User)
			user.ID = "user-1"
			user.CreatedAt = time.Now()
		}).Return(nil)

		c, w := newContext(http.MethodPost, "/api/v1/auth/signup", RegisterRequest{
			Name:     "Asha",
			Email:    "Asha@Example.com",
			Password: "password123",
		}, "")
		handler.RegisterUser(c)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp AuthResponse
		decode(t, w, &resp)
		assert.Equal(t, "user-1", resp.User.ID)
		assert.Equal(t, "asha@example.com", resp.User.Email)
		assert.NotContains(t, w.Body.String(), "password")

		claims, err := auth.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		store.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		handler, store, _, _ := newUserHandler()
		store.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(true, nil)

		c, w := newContext(http.MethodPost, "/api/v1/auth/signup", RegisterRequest{
			Name: "Asha", Email: "asha@example.com", Password: "password123",
		}, "")
		handler.RegisterUser(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "User already exists", errorOf(t, w))
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid body", func(t *testing.T) {
		handler, _, _, _ := newUserHandler()
		for _, body := range []interface{}{
			"invalid json",
			map[string]string{"name": "A", "email": "not-an-email", "password": "password123"},
			map[string]string{"name": "A", "email": "a@example.com", "password": "short"},
		} {
			c, w := newContext(http.MethodPost, "/api/v1/auth/signup", body, "")
			handler.RegisterUser(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		handler, store, _, _ := newUserHandler()
		store.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

		c, w := newContext(http.MethodPost, "/api/v1/auth/signup", RegisterRequest{
			Name: "Asha", Email: "asha@example.com", Password: "password123",
		}, "")
		handler.RegisterUser(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", errorOf(t, w))
	})
}

func TestUserHandler_LoginUser(t *testing.T) {
	user := &models.User{ID: "user-1", Name: "Asha", Email: "asha@example.com", PasswordHash: hashed(t, "password123")}

	t.Run("valid credentials", func(t *testing.T) {
		handler, store, _, _ := newUserHandler()
		store.On("GetByEmail", mock.Anything, "asha@example.com").Return(user, nil)

		c, w := newContext(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "asha@example.com", Password: "password123"}, "")
		handler.LoginUser(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp AuthResponse
		decode(t, w, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "user-1", resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		handler, store, _, _ := newUserHandler()
		store.On("GetByEmail", mock.Anything, "asha@example.com").Return(user, nil)

		c, w := newContext(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "asha@example.com", Password: "wrong-password"}, "")
		handler.LoginUser(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", errorOf(t, w))
	})

	t.Run("unknown user", func(t *testing.T) {
		handler, store, _, _ := newUserHandler()
		store.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, database.ErrNotFound)

		c, w := newContext(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "ghost@example.com", Password: "password123"}, "")
		handler.LoginUser(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_GetUserProfile(t *testing.T) {
	t.Run("requires user", func(t *testing.T) {
		handler, _, _, _ := newUserHandler()
		c, w := newContext(http.MethodGet, "/api/v1/users/profile", nil, "")
		handler.GetUserProfile(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("cache hit", func(t *testing.T) {
		handler, store, cache, _ := newUserHandler()
		cache.On("Get", mock.Anything, "user-1").Return(&models.UserResponse{ID: "user-1", Name: "Asha"}, true)

		c, w := newContext(http.MethodGet, "/api/v1/users/profile", nil, "user-1")
		handler.GetUserProfile(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]models.UserResponse
		decode(t, w, &resp)
		assert.Equal(t, "Asha", resp["user"].Name)
		store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		handler, store, cache, _ := newUserHandler()
		cache.On("Get", mock.Anything, "user-1").Return(nil, false)
		store.On("GetByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", Email: "asha@example.com"}, nil)
		cache.On("Set", mock.Anything, mock.MatchedBy(func(u models.UserResponse) bool { return u.ID == "user-1" })).Return(nil)

		c, w := newContext(http.MethodGet, "/api/v1/users/profile", nil, "user-1")
		handler.GetUserProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		cache.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		handler, store, cache, _ := newUserHandler()
		cache.On("Get", mock.Anything, "gone").Return(nil, false)
		store.On("GetByID", mock.Anything, "gone").Return(nil, database.ErrNotFound)

		c, w := newContext(http.MethodGet, "/api/v1/users/profile", nil, "gone")
		handler.GetUserProfile(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", errorOf(t, w))
	})
}

func TestUserHandler_UpdateUserProfile(t *testing.T) {
	t.Run("links chat", func(t *testing.T) {
		handler, store, cache, _ := newUserHandler()
		chatID := "987654"
		store.On("UpdateTelegramChatID", mock.Anything, "user-1", mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == chatID
		})).Return(&models.User{ID: "user-1", TelegramChatID: &chatID}, nil)
		cache.On("Invalidate", mock.Anything, "user-1").Return(nil)

		c, w := newContext(http.MethodPut, "/api/v1/users/profile", map[string]string{"telegram_chat_id": " 987654 "}, "user-1")
		handler.UpdateUserProfile(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"telegram_chat_id":"987654"`)
		cache.AssertExpectations(t)
	})

	t.Run("blank chat unlinks", func(t *testing.T) {
		handler, store, cache, _ := newUserHandler()
		store.On("UpdateTelegramChatID", mock.Anything, "user-1", (*string)(nil)).Return(&models.User{ID: "user-1"}, nil)
		cache.On("Invalidate", mock.Anything, "user-1").Return(nil)

		c, w := newContext(http.MethodPut, "/api/v1/users/profile", map[string]string{"telegram_chat_id": "  "}, "user-1")
		handler.UpdateUserProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertExpectations(t)
	})
}
