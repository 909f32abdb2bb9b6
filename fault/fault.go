package fault

import "fmt"

type Code string

const (
	UnknownCode          Code = "unknown"
	BadInputCode         Code = "bad_input"
	BadFormatCode        Code = "bad_format"
	PropertyNotFoundCode Code = "property_not_found"
	TypeConversionCode   Code = "type_conversion"
)

type FieldErrorsMetadata map[string][]string

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// CodeOf extracts the fault code from an error, or UnknownCode when the
// error did not originate from this package.
func CodeOf(err error) Code {
	if f, ok := err.(Fault); ok {
		return f.code
	}
	return UnknownCode
}
