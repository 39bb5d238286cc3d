package domain

import (
	"errors"
	"fmt"
)

// FailureKind clasifica los fallos de negocio de forma explícita, sin
// excepciones: los servicios devuelven *Failure y la capa HTTP / el
// consumidor deciden el código de estado o el reintento según el Kind.
type FailureKind string

const (
	// ValidationFailed: el comando es inválido (campos ausentes, importes negativos...).
	// Nunca se reintenta.
	ValidationFailed FailureKind = "validation_failed"
	// NotFound: el referente no existe. En un consumidor se registra y se
	// confirma el mensaje; reintentar no lo va a arreglar.
	NotFound FailureKind = "not_found"
	// Conflict: violación de regla de negocio (SKU duplicado, etc.).
	Conflict FailureKind = "conflict"
	// AlreadyPaid / AlreadyCancelled: la entidad está en estado terminal.
	AlreadyPaid      FailureKind = "already_paid"
	AlreadyCancelled FailureKind = "already_cancelled"
	// OutOfStock: no hay inventario suficiente para la reserva.
	OutOfStock FailureKind = "out_of_stock"
	// Unavailable: fallo transitorio de infraestructura; candidato a reintento.
	Unavailable FailureKind = "unavailable"
)

// Failure es un error de dominio con clasificación.
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.cause }

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func WrapFailure(kind FailureKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, cause: cause}
}

// KindOf extrae el FailureKind de un error. Si el error no es un *Failure
// se considera fallo transitorio (Unavailable), que es la opción segura:
// el llamante puede reintentar.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unavailable
}

// IsKind comprueba si el error lleva un kind concreto.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// Terminal indica si el fallo es definitivo: reintentar la misma operación
// nunca va a cambiar el resultado, así que el mensaje debe confirmarse.
func Terminal(err error) bool {
	switch KindOf(err) {
	case ValidationFailed, NotFound, Conflict, AlreadyPaid, AlreadyCancelled, OutOfStock:
		return true
	}
	return false
}
