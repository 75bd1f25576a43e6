package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures.
type ErrorType string

const (
	// ErrorTypeTranslation covers expression shapes the translators reject.
	ErrorTypeTranslation ErrorType = "TRANSLATION_ERROR"
	// ErrorTypeResolution covers failures while resolving an AST to a plan.
	ErrorTypeResolution ErrorType = "RESOLUTION_ERROR"
	// ErrorTypeEvaluation covers failures evaluating a deferred value.
	ErrorTypeEvaluation ErrorType = "EVALUATION_ERROR"
	// ErrorTypeValidation covers malformed input.
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	// ErrorTypeMetadata covers missing model metadata.
	ErrorTypeMetadata ErrorType = "METADATA_ERROR"
)

// Sentinel errors for the query pipeline.
var (
	// ErrUnsupportedExpression: the expression shape cannot be translated
	// into the store's constrained query model.
	ErrUnsupportedExpression = errors.New("unsupported query expression")
	// ErrUnsupportedOperation: the request is expressible in the source
	// language but the store cannot execute it at all.
	ErrUnsupportedOperation = errors.New("operation not supported by the store")
	// ErrNullFilterNotAllowed: a null filter value on a property not opted
	// into null persistence.
	ErrNullFilterNotAllowed = errors.New("null filter on property without null persistence")
	// ErrUnknownParameter: a named parameter is missing from the value context.
	ErrUnknownParameter = errors.New("unknown query parameter")
	// ErrEvaluation: a deferred value expression failed to evaluate.
	ErrEvaluation = errors.New("value expression evaluation failed")
	// ErrInListTooLarge: an IN-list exceeds the store's disjunction bound.
	ErrInListTooLarge = errors.New("candidate list exceeds store limit")
	// ErrInvalidQuery: the query shape is structurally inconsistent.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownEntity / ErrUnknownNavigation / ErrUnknownEnum: missing
	// metadata from the convention subsystem.
	ErrUnknownEntity     = errors.New("unknown entity")
	ErrUnknownNavigation = errors.New("unknown navigation")
	ErrUnknownEnum       = errors.New("unknown enum type")
)

// AppError is a pipeline error with context. It wraps a sentinel so callers
// can branch with errors.Is while still seeing the offending property and
// operator in the message.
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new pipeline error.
func NewAppError(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithCause attaches the underlying cause.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent names the pipeline stage that failed.
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewTranslationError reports an expression shape the translators reject.
func NewTranslationError(message string) *AppError {
	return NewAppError(ErrorTypeTranslation, message).WithCause(ErrUnsupportedExpression)
}

// NewUnsupportedOperationError reports a request the store cannot execute,
// naming the offending property and operator.
func NewUnsupportedOperationError(property, operation string) *AppError {
	return NewAppError(ErrorTypeTranslation,
		fmt.Sprintf("store cannot express %s on property %q", operation, property)).
		WithCause(ErrUnsupportedOperation).
		WithDetail("property", property).
		WithDetail("operation", operation)
}

// NewNullFilterError reports a null filter value on a property that does not
// persist nulls.
func NewNullFilterError(property string) *AppError {
	return NewAppError(ErrorTypeResolution,
		fmt.Sprintf("property %q does not persist nulls and cannot be filtered by null", property)).
		WithCause(ErrNullFilterNotAllowed).
		WithDetail("property", property)
}

// NewEvaluationError reports a deferred-value evaluation failure.
func NewEvaluationError(message string, cause error) *AppError {
	e := NewAppError(ErrorTypeEvaluation, message)
	if cause != nil {
		e.Cause = cause
	} else {
		e.Cause = ErrEvaluation
	}
	return e
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message).WithCause(ErrInvalidQuery)
}

// IsUnsupported checks whether an error means the query cannot be expressed.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedExpression) || errors.Is(err, ErrUnsupportedOperation)
}

// IsEvaluation checks whether an error is a value-evaluation failure.
func IsEvaluation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeEvaluation
	}
	return errors.Is(err, ErrEvaluation)
}
