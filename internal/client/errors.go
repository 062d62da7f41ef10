package client

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindAborted      ErrorKind = "aborted"
	KindNetwork      ErrorKind = "network"
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnavailable  ErrorKind = "unavailable"
	KindServer       ErrorKind = "server"
	KindUnknown      ErrorKind = "unknown"
)

var (
	// ErrAborted is wrapped by every call cut short by its timeout.
	ErrAborted          = errors.New("request aborted")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError describes a failed call. DisplayMessage is suitable for showing
// to the user as is.
type APIError struct {
	Kind           ErrorKind
	Status         int
	Message        string
	DisplayMessage string
	Err            error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newStatusError(status int, message string) *APIError {
	kind := KindUnknown
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusServiceUnavailable:
		kind = KindUnavailable
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Kind:           kind,
		Status:         status,
		Message:        message,
		DisplayMessage: displayMessage(kind, message),
	}
}

func newAbortedError(cause error) *APIError {
	return &APIError{
		Kind:           KindAborted,
		Message:        cause.Error(),
		DisplayMessage: displayMessage(KindAborted, ""),
		Err:            fmt.Errorf("%w: %v", ErrAborted, cause),
	}
}

func newNetworkError(cause error) *APIError {
	return &APIError{
		Kind:           KindNetwork,
		Message:        cause.Error(),
		DisplayMessage: displayMessage(KindNetwork, ""),
		Err:            cause,
	}
}

func displayMessage(kind ErrorKind, serverMessage string) string {
	switch kind {
	case KindAborted:
		return "Сервер не ответил вовремя. Попробуйте ещё раз."
	case KindNetwork:
		return "Нет соединения с сервером."
	case KindValidation:
		return "Проверьте введённые данные: " + serverMessage
	case KindUnauthorized:
		return "Требуется авторизация."
	case KindForbidden:
		return "Доступ запрещён. Войдите снова."
	case KindNotFound:
		return "Запись не найдена."
	case KindRateLimited:
		return "Слишком много запросов. Подождите немного."
	case KindUnavailable:
		return "Сервис временно недоступен."
	case KindServer:
		return "Ошибка сервера. Попробуйте позже."
	default:
		return "Что-то пошло не так."
	}
}
