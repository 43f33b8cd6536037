package services

import (
	"context"
	"fmt"
	"time"

	"housing-backend/internal/models"
	"housing-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// UserService handles registration, login and session tokens
type UserService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// RegisterRequest represents a registration form
type RegisterRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	UserType models.UserType `json:"user_type"`
}

// LoginRequest represents a login form
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Username string          `json:"username"`
	UserType models.UserType `json:"user_type"`
	Access   string          `json:"access"`
	Token    string          `json:"token"`
}

// Register creates a new account
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.UserAccount, error) {
	if req.Username == "" || req.Password == "" || req.UserType == "" {
		return nil, fmt.Errorf("please complete all fields: %w", repository.ErrInvalidInput)
	}
	if !req.UserType.Valid() {
		return nil, fmt.Errorf("unknown user type %q: %w", req.UserType, repository.ErrInvalidInput)
	}

	user := models.UserAccount{
		Username: req.Username,
		Password: req.Password,
		UserType: req.UserType,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return &user, nil
}

// FindByUsername looks up an account on a fresh snapshot
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// Authenticate returns the user type for username.
// The password is NOT compared with the stored one. Known defect kept on purpose
// until the intended behavior is confirmed.
func (s *UserService) Authenticate(ctx context.Context, username, _ string) (models.UserType, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return user.UserType, nil
}

// Login authenticates and issues a session token
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	userType, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(req.Username, userType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Username: req.Username,
		UserType: userType,
		Access:   userType.AccessLevel(),
		Token:    token,
	}, nil
}

// GenerateJWT generates a session token for a user
func (s *UserService) GenerateJWT(username string, userType models.UserType) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       username,
		"user_type": string(userType),
		"jti":       uuid.New().String(),
		"exp":       now.Add(s.tokenTTL).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token and returns the username
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("sub not found in token")
	}

	return username, nil
}
