package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores del API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Error original (causa), útil para logs, no se expone al cliente por defecto
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando el error original.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrServerError.WithCause(err)
}

// WithDetail agrega detalles adicionales al error (útil para validaciones)
// Devuelve una COPIA del error para no mutar las variables globales base
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithMessage reemplaza el mensaje del error.
// Devuelve una COPIA del error
func (e *AppError) WithMessage(msg string) *AppError {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithCause agrega el error original (causa)
// Devuelve una COPIA del error
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// Los codes son parte del contrato del API: los clientes hacen switch sobre
// ellos, no sobre los mensajes.

var (
	// 400 Bad Request
	ErrInvalidPayload = &AppError{
		Code:       "invalid_payload",
		Message:    "Request payload is invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidRequest = &AppError{
		Code:       "invalid_request",
		Message:    "One or more request parameters are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	// 401 Unauthorized
	ErrUnauthenticated = &AppError{
		Code:       "unauthenticated",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// 403 Forbidden
	ErrForbidden = &AppError{
		Code:       "forbidden",
		Message:    "You do not have the required permissions.",
		HTTPStatus: http.StatusForbidden,
	}

	// 404 Not Found
	ErrNotFound = &AppError{
		Code:       "not_found",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	// 405 Method Not Allowed
	ErrMethodNotAllowed = &AppError{
		Code:       "method_not_allowed",
		Message:    "HTTP method not allowed.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	// 429 Too Many Requests
	ErrRateLimited = &AppError{
		Code:       "rate_limited",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	// 500 Internal Server Error
	ErrServerError = &AppError{
		Code:       "server_error",
		Message:    "Unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
