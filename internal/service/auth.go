package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/storage"
	"github.com/kmalykh/webstore/internal/token"
)

var (
	// ErrEmailTaken — email уже занят другим пользователем.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials — неверный email или пароль. Одна ошибка на оба
	// случая, чтобы по ответу нельзя было перебрать зарегистрированные email.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthResult — результат успешной регистрации или входа.
type AuthResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokens   *token.Manager
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokens *token.Manager) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register создаёт нового пользователя и сразу выдаёт ему токен.
// Пароль хэшируется через bcrypt (соль он добавляет сам). На каждую успешную
// регистрацию создаётся ровно одна строка в users
func (a *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "service.AuthService.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	_, err := a.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Warn("email already registered")
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to check existing user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{Email: email, PassHash: passHash})
	if err != nil {
		// гонка двух одновременных регистраций: уникальный индекс в БД
		// превращает вторую вставку в тот же конфликт
		if errors.Is(err, storage.ErrEmailTaken) {
			logger.Warn("email already registered (concurrent insert)")
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	tokenStr, err := a.tokens.Issue(user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered successfully", slog.Int64("userID", user.ID))
	return &AuthResult{Token: tokenStr, Email: user.Email}, nil
}

// Login проверяет пароль и выдаёт токен. Ничего в БД не пишет
func (a *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tokenStr, err := a.tokens.Issue(user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return &AuthResult{Token: tokenStr, Email: user.Email}, nil
}
