package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, "test-secret", 30*time.Minute, zap.NewNop())
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "clerk@uni.edu").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)

	user, err := svc.Register(ctx, RegisterRequest{Email: " Clerk@Uni.edu ", Password: "password123", Role: RoleInstitution})
	require.NoError(t, err)
	assert.Equal(t, "clerk@uni.edu", user.Email)
	assert.Equal(t, RoleInstitution, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestService_Register_RejectsAdminRole(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "password123", Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "a@b.c").Return(&User{Email: "a@b.c"}, nil)

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LoginAndParse(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: uuid.New(), Email: "a@b.c", PasswordHash: string(hash), Role: RoleUser, IsActive: true}
	mockRepo.On("GetByEmail", ctx, "a@b.c").Return(user, nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: "a@b.c", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.c", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_ParseToken_WrongSecret(t *testing.T) {
	issuer := NewService(nil, "one", time.Minute, zap.NewNop())
	token, _, err := issuer.IssueToken(&User{ID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)

	_, err = newTestService(nil).ParseToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(nil)
	userToken, _, err := svc.IssueToken(&User{ID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)
	adminToken, _, err := svc.IssueToken(&User{ID: uuid.New(), Role: RoleAdmin})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/admin", RequireAuth(svc, zap.NewNop()), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
