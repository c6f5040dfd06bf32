package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/market-insights/internal/errors"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
)

var errPanic = errors.New("panic")

// Recover перехватывает panic и отвечает 500/internal.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				// http.ErrAbortHandler — штатный обрыв ответа, его пробрасываем дальше.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
					slog.String("path", r.URL.Path),
					slog.Any("reason", rec),
				)
				apierrors.WriteError(w, r, errPanic)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
