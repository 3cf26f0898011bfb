package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only hashes the first 72 bytes of a password.
const maxPasswordBytes = 72

// TokenIssuer signs identity tokens at login.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

type UserUseCase struct {
	users  domain.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewUserUseCase(users domain.UserRepository, tokens TokenIssuer, logger *zap.Logger) *UserUseCase {
	return &UserUseCase{
		users:  users,
		tokens: tokens,
		logger: logger.Named("UserUseCase"),
	}
}

type SignUpInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return domain.Errorf(domain.ErrValidation, "Username and password are required")
	}
	if len(password) > maxPasswordBytes {
		return domain.Errorf(domain.ErrValidation, "Password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// SignUp creates an account with a bcrypt hashed password.
func (uc *UserUseCase) SignUp(ctx context.Context, input SignUpInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateCredentials(username, input.Password); err != nil {
		return nil, err
	}

	_, err := uc.users.GetByUsername(ctx, username)
	if err == nil {
		return nil, domain.Errorf(domain.ErrConflict, "User already exists")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("UserUseCase.SignUp: failed to look up username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("UserUseCase.SignUp: failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	id, err := uc.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Errorf(domain.ErrConflict, "User already exists")
		}
		uc.logger.Error("Failed to create user in repository", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("UserUseCase.SignUp: failed to create user: %w", err)
	}
	user.ID = id

	uc.logger.Info("User signed up", zap.String("user_id", id), zap.String("username", username))
	return user, nil
}

// Login checks the credentials and returns a signed identity token.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateCredentials(username, input.Password); err != nil {
		return "", err
	}

	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.Errorf(domain.ErrNotFound, "User not found")
		}
		return "", fmt.Errorf("UserUseCase.Login: failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		uc.logger.Debug("Password mismatch on login", zap.String("username", username))
		return "", domain.Errorf(domain.ErrInvalidCredentials, "Invalid password")
	}

	token, err := uc.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("UserUseCase.Login: %w", err)
	}
	return token, nil
}
