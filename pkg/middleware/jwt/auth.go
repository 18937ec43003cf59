package jwt

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"focusflow/pkg/lib/jwt"
	resp "focusflow/pkg/lib/response"
)

func NewUserAuth(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log = log.With(
			slog.String("op", "middlewareAuth"),
		)

		log.Info("auth middleware enabled")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := jwt.ExtractJWTFromHeader(r)
			if err != nil {
				handleAuthError(w, r, log, err)
				return
			}

			claims, err := jwt.ValidateJWT(tokenStr)
			if err != nil {
				handleAuthError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), "userId", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func handleAuthError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("auth error", slog.String("error", err.Error()))
	w.WriteHeader(http.StatusUnauthorized)
	render.JSON(w, r, resp.Error(err.Error()))
}
