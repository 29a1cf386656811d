package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError dato de entrada inválido, corregible por el cliente
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingFieldError campo obligatorio ausente en un documento de factura
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("campo obligatorio ausente en el documento: %s", e.Field)
}

// UnknownMaterialError materia prima inexistente o inactiva
type UnknownMaterialError struct {
	MaterialID int
}

func (e *UnknownMaterialError) Error() string {
	return fmt.Sprintf("materia prima %d no existe o está inactiva", e.MaterialID)
}

// NotFoundError entidad referenciada (proceso, forma, materia prima) no encontrada
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d no encontrado", e.Entity, e.ID)
}

// ParseError valor no numérico o documento mal formado
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("valor inválido %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("valor inválido %q", e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewValidation atajo para construir un ValidationError
func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus traduce un error del dominio a un código HTTP.
// Errores que no pertenecen al dominio son fallas del servidor.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		missing    *MissingFieldError
		unknown    *UnknownMaterialError
		notFound   *NotFoundError
		parse      *ParseError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation),
		errors.As(err, &missing),
		errors.As(err, &unknown),
		errors.As(err, &parse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
