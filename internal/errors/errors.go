// errors стандартизирует ответы об ошибках HTTP-слоя market-insights.
// На вход принимает доменную ошибку (service/rss/контекст), на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей апстрима.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/market-insights/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidArgument — некорректный ввод клиента (тело, query-параметры).
// Хендлеры оборачивают им ошибки разбора и валидации через %w.
var ErrInvalidArgument = errors.New("invalid argument")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - service.ErrFeedUnavailable - 503 feed_unavailable (обе попытки провалились);
//   - ErrInvalidArgument - 400 invalid_argument;
//   - context.Canceled - 499, context.DeadlineExceeded - 504;
//   - прочее - 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус/тело и добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify — порядок проверок важен: недоступность ленты проверяется раньше
// контекстных ошибок, потому что таймаут попытки лежит внутри UnavailableError.
func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrFeedUnavailable):
		return http.StatusServiceUnavailable, "feed_unavailable", "market insights unavailable"
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
