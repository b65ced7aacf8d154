package tokenmiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kmalykh/webstore/internal/token"
)

type contextKey string

const IdentityKey contextKey = "identity"

// New создаёт middleware, проверяющее заголовок Authorization через token.Manager.
// Отсутствие токена, неверный формат, плохая подпись и истёкший срок дают
// один и тот же ответ 401, чтобы не подсказывать причину отказа
func New(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := tokens.Verify(parts[1])
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext извлекает личность пользователя из контекста запроса.
func FromContext(ctx context.Context) (*token.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*token.Identity)
	return identity, ok
}
