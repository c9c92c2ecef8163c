package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/auth"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	pusher := new(mocks.PusherMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, pusher, nil))

	users.On("CreateUser", mock.Anything, "alice", mock.AnythingOfType("string")).
		Return(models.User{ID: 1, Username: "alice"}, nil).Once()
	pusher.On("Broadcast", mock.MatchedBy(func(ev models.ServerEvent) bool {
		return ev.Type == models.EventUserJoined && ev.User != nil && ev.User.ID == 1 && ev.User.Username == "alice"
	})).Once()

	w := postJSON(router, "/register", gin.H{"username": "Alice", "password": "hunter22"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	users.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	pusher := new(mocks.PusherMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, pusher, nil))

	users.On("CreateUser", mock.Anything, "alice", mock.AnythingOfType("string")).
		Return(models.User{}, repositories.ErrDuplicateUsername).Once()

	w := postJSON(router, "/register", gin.H{"username": "alice", "password": "hunter22"})

	assert.Equal(t, http.StatusConflict, w.Code)
	pusher.AssertNotCalled(t, "Broadcast", mock.Anything)
}

func TestRegisterInvalidUsername(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, new(mocks.PusherMock), nil))

	w := postJSON(router, "/register", gin.H{"username": "!!", "password": "hunter22"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, new(mocks.PusherMock), nil))

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	users.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()

	w := postJSON(router, "/login", gin.H{"username": "alice", "password": "hunter22"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
		ID    int    `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.ID)

	identity, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, new(mocks.PusherMock), nil))

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	users.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()

	w := postJSON(router, "/login", gin.H{"username": "alice", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := setupAuthRouter(NewAuthHandler(users, tokens, new(mocks.PusherMock), nil))

	users.On("GetUserByUsername", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	w := postJSON(router, "/login", gin.H{"username": "ghost", "password": "hunter22"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}
