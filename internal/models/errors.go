package models

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeExtraction        ErrorType = "extraction"
	ErrorTypeInference         ErrorType = "inference"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeIO                ErrorType = "io"
)

// UnsupportedFormatMessage is the user-facing text for a rejected upload.
const UnsupportedFormatMessage = "Unsupported file format."

// UnsupportedUploadPrompt asks the user to upload a supported file instead.
const UnsupportedUploadPrompt = "The uploaded file format is unsupported. Please upload a PDF, DOCX, or TXT file."

// ErrUnsupportedFormat is matched with errors.Is by callers that need to
// tell a rejected upload apart from a failed extraction.
var ErrUnsupportedFormat = errors.New(UnsupportedFormatMessage)

// DocumentError carries an error category alongside the wrapped cause.
type DocumentError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error) *DocumentError {
	return &DocumentError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func UnsupportedFormatError(name string) *DocumentError {
	return NewError(ErrorTypeUnsupportedFormat, fmt.Sprintf("cannot load %q", name), ErrUnsupportedFormat)
}

func ExtractionError(message string, err error) *DocumentError {
	return NewError(ErrorTypeExtraction, message, err)
}

func InferenceError(message string, err error) *DocumentError {
	return NewError(ErrorTypeInference, message, err)
}

func ValidationError(message string, err error) *DocumentError {
	return NewError(ErrorTypeValidation, message, err)
}

func IOError(message string, err error) *DocumentError {
	return NewError(ErrorTypeIO, message, err)
}

// ErrorTypeOf returns the category of the first DocumentError in err's chain,
// or an empty string when there is none.
func ErrorTypeOf(err error) ErrorType {
	var de *DocumentError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// UserMessage renders err for display. Unsupported uploads always produce
// the fixed message.
func UserMessage(err error) string {
	if errors.Is(err, ErrUnsupportedFormat) {
		return UnsupportedFormatMessage
	}
	var de *DocumentError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
