package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"casetrack/internal/apperr"
	"casetrack/internal/database"
	"casetrack/internal/models"
	"casetrack/internal/repository"
	"casetrack/internal/security"
	"casetrack/internal/validation"
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("Incorrect username or password")
	ErrInvalidSession     = apperr.Unauthorized("Could not validate credentials")
)

// Credentials is the login payload
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// NewUser is the payload for creating a staff account
type NewUser struct {
	Username string      `json:"username" validate:"required,min=3,max=64"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"required,oneof=admin case_worker"`
}

// Token is an issued bearer token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService handles authentication business logic
type AuthService struct {
	db     *database.DB
	users  *repository.UserRepository
	tokens *security.TokenIssuer
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, tokens *security.TokenIssuer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		db:     db,
		users:  repository.NewUserRepository(db),
		tokens: tokens,
		logger: logger.Named("auth"),
	}
}

// Login checks a username and password and issues a token
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*Token, error) {
	if err := validation.Struct(&creds); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving user")
	}
	if user == nil || !security.CheckPassword(creds.Password, user.PasswordHash) {
		s.logger.Info("login failed", zap.String("username", creds.Username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err, "Failed to issue token")
	}

	s.logger.Info("login", zap.Int64("user_id", user.ID))
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving user")
	}
	if user == nil {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// CreateUser validates and stores a new staff account
func (s *AuthService) CreateUser(ctx context.Context, req NewUser) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if s.db.GetDialect().IsUniqueViolation(err) {
			return nil, apperr.Conflict("User with username '%s' or email '%s' already exists", req.Username, req.Email)
		}
		return nil, apperr.Internal(err, "Failed to create user")
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// ListUsers returns every staff account
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving users")
	}
	return users, nil
}
