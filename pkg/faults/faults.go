// Package faults defines the failure taxonomy shared by the encoder, the
// prediction service and the client. Callers branch on Kind, never on text.
package faults

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindEncoding is raw operator input outside its declared domain.
	KindEncoding Kind = iota + 1
	// KindTransport is an unreachable service, a timeout or a malformed response.
	KindTransport
	// KindService is a decode or inference failure inside the service.
	KindService
	// KindValidation is a feature record failing domain checks.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindEncoding:
		return "encoding"
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Describe is the operator-facing headline for the kind.
func (k Kind) Describe() string {
	switch k {
	case KindEncoding:
		return "Invalid patient details"
	case KindTransport:
		return "Could not connect to prediction API"
	case KindService:
		return "Prediction service error"
	case KindValidation:
		return "Patient record failed validation"
	default:
		return "Unexpected error"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindService.
func ParseKind(name string) Kind {
	switch name {
	case "encoding":
		return KindEncoding
	case "transport":
		return KindTransport
	case "validation":
		return KindValidation
	default:
		return KindService
	}
}

type Fault struct {
	Kind    Kind
	Field   string
	Status  int
	Message string
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault: %s", f.Kind, f.Detail())
}

// Detail is the diagnostic text without the kind prefix.
func (f *Fault) Detail() string {
	msg := f.Message
	if f.Field != "" {
		msg = fmt.Sprintf("%s: %s", f.Field, msg)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func Encoding(field, format string, args ...interface{}) *Fault {
	return &Fault{Kind: KindEncoding, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Validation(field, format string, args ...interface{}) *Fault {
	return &Fault{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Service(status int, message string, err error) *Fault {
	return &Fault{Kind: KindService, Status: status, Message: message, Err: err}
}

func Transport(message string, err error) *Fault {
	return &Fault{Kind: KindTransport, Message: message, Err: err}
}

// KindOf reports the kind of the first Fault in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// Is reports whether err carries a Fault of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
