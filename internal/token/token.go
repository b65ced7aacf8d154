package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kmalykh/webstore/internal/domain/models"
)

// MinSecretLen — минимальная длина секрета для HMAC-SHA256.
const MinSecretLen = 32

var (
	ErrSecretTooShort = errors.New("jwt secret must be at least 32 bytes")
	ErrInvalidToken   = errors.New("invalid token")
)

// Identity — подтверждённая личность из проверенного токена.
type Identity struct {
	UserID int64
	Email  string
}

// Manager выпускает и проверяет JWT-токены. Секрет задаётся один раз при
// создании: если секрет короче MinSecretLen, конструктор возвращает ошибку
// и сервис не стартует. Никакого запасного захардкоженного секрета нет.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue генерирует подписанный токен для пользователя.
// Идентификатор кладём только в "sub" — единственное каноническое поле
func (m *Manager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"exp":   now.Add(m.ttl).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify проверяет подпись и срок действия токена.
// Любая причина отказа сворачивается в ErrInvalidToken: вызывающая сторона
// должна отвечать одинаково независимо от того, что именно не так с токеном
func (m *Manager) Verify(tokenStr string) (*Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Проверка алгоритма
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)

	return &Identity{UserID: userID, Email: email}, nil
}
