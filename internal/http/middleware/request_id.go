package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID — заголовок корреляции запроса.
const HeaderRequestID = "X-Request-Id"

type ctxKey struct{}

// RequestID обеспечивает наличие X-Request-Id:
//  1. читает заголовок, если клиент его прислал;
//  2. иначе генерирует UUIDv4;
//  3. кладёт id в заголовки ответа и запроса (его читает errors.WriteError) и в контекст.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), ctxKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom достаёт id, положенный RequestID; "" если мидлвара не было.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
