// Package apyerr implements the tagged-error model used across every
// service: a stable numeric code, an error kind, an operation context and
// an optional structured extra map for diagnostics.
package apyerr

import "fmt"

// Kind classifies the failure so callers can apply a uniform propagation
// policy without string-matching messages.
type Kind int

const (
	KindNotFound Kind = iota
	KindValidation
	KindBusinessLogic
	KindExternalService
	KindAccessDenied
	KindInfrastructure
	KindTimeout
	KindUnknown
)

// kindCode is the "KK" component of the AA-DD-CC KK NN numbering.
func (k Kind) kindCode() string {
	switch k {
	case KindNotFound:
		return "01"
	case KindValidation:
		return "02"
	case KindBusinessLogic:
		return "03"
	case KindExternalService:
		return "04"
	case KindAccessDenied:
		return "05"
	case KindInfrastructure:
		return "06"
	case KindTimeout:
		return "07"
	default:
		return "08"
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindBusinessLogic:
		return "BusinessLogic"
	case KindExternalService:
		return "ExternalService"
	case KindAccessDenied:
		return "AccessDenied"
	case KindInfrastructure:
		return "Infrastructure"
	case KindTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error is the common error value threaded through every core operation.
type Error struct {
	Code    string
	Kind    Kind
	Context string
	Message string
	Extra   map[string]string
}

func (e *Error) Error() string {
	if len(e.Extra) == 0 {
		return fmt.Sprintf("%s [%s] %s: %s", e.Code, e.Kind, e.Context, e.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s %v", e.Code, e.Kind, e.Context, e.Message, e.Extra)
}

func new_(code string, kind Kind, context, message string, extra map[string]string) *Error {
	return &Error{Code: code, Kind: kind, Context: context, Message: message, Extra: extra}
}

func NotFound(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindNotFound, context, message, extra)
}

func Validation(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindValidation, context, message, extra)
}

func BusinessLogic(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindBusinessLogic, context, message, extra)
}

func ExternalService(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindExternalService, context, message, extra)
}

func AccessDenied(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindAccessDenied, context, message, extra)
}

func Infrastructure(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindInfrastructure, context, message, extra)
}

// Timeout is treated as ExternalService per the propagation policy, but
// keeps its own kind tag for observability.
func Timeout(code, context, message string, extra map[string]string) *Error {
	return new_(code, KindTimeout, context, message, extra)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := err.(*Error)
	return ok && ae.Kind == kind
}
