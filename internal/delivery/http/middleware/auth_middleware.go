package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	"github.com/praveen-kumars/pillremander-sub001/internal/usecase"
	"github.com/praveen-kumars/pillremander-sub001/pkg/response"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionMiddleware gates routes that need a signed-in account. The session
// comes from the coordinator (cache first, remote fallback), never from
// trusting request headers.
type SessionMiddleware struct {
	syncUsecase usecase.SyncUsecase
}

func NewSessionMiddleware(syncUsecase usecase.SyncUsecase) *SessionMiddleware {
	return &SessionMiddleware{syncUsecase: syncUsecase}
}

func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.syncUsecase.GetSession(r.Context())
		if err != nil {
			if errors.Is(err, usecase.ErrNotSignedIn) {
				response.Unauthorized(w, "Sign in required")
				return
			}
			response.ServiceUnavailable(w, "Failed to verify session")
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSessionFromContext(ctx context.Context) (*entity.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*entity.Session)
	return session, ok
}
