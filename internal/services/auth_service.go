package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"solace/internal/domain"
	"solace/internal/middleware"
	"solace/internal/repository"
)

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthService handles login and token minting, adapted from the teacher's
// UserService — same bcrypt-compare + jwt.NewWithClaims idiom, rewired to
// domain.User/email-based lookup and an injected secret/expiry instead of
// reading viper mid-request.
type AuthService struct {
	users     *repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(users *repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

// Login authenticates by email/password and returns the user and a signed JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.IsActive {
		return nil, "", errors.New("invalid credentials")
	}
	if !repository.VerifyPassword(user, password) {
		return nil, "", errors.New("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}

	_ = s.users.UpdateLastLogin(ctx, user.ID)
	return user, token, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := middleware.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
