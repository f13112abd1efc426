package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Ship-related errors

type ShipError struct {
	*DomainError
	ShipSymbol string
}

func NewShipError(shipSymbol, message string) *ShipError {
	return &ShipError{
		DomainError: &DomainError{Message: fmt.Sprintf("ship %s: %s", shipSymbol, message)},
		ShipSymbol:  shipSymbol,
	}
}

// ShipNotFoundError is returned when a ship symbol is not part of the managed fleet
type ShipNotFoundError struct {
	*ShipError
}

func NewShipNotFoundError(shipSymbol string) *ShipNotFoundError {
	return &ShipNotFoundError{ShipError: NewShipError(shipSymbol, "not found in fleet")}
}

type InsufficientCargoSpaceError struct {
	*ShipError
	Required  int
	Available int
}

func NewInsufficientCargoSpaceError(shipSymbol string, required, available int) *InsufficientCargoSpaceError {
	return &InsufficientCargoSpaceError{
		ShipError: NewShipError(shipSymbol, fmt.Sprintf("insufficient cargo space: need %d, have %d", required, available)),
		Required:  required,
		Available: available,
	}
}
