package errors

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code identifies a class of failure exposed by the marketplace. Every code
// maps to a grpc status code so transport layers can translate it without
// inspecting messages.
type Code struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and message.
func (c Code) New(msg string, args ...any) Error {
	return &errorImpl{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new error with the given code and the cause error.
func (c Code) Wrap(cause error) Error {
	return &errorImpl{
		code:  c,
		cause: cause,
	}
}

func (c Code) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
	WithMetadata(map[string]string) Error
	Unwrap() error
}

type errorImpl struct {
	code     Code
	cause    error
	metadata map[string]string
}

func (e *errorImpl) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *errorImpl) Code() uint16 {
	return e.code.Code
}

func (e *errorImpl) CodeName() string {
	return e.code.Name
}

func (e *errorImpl) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *errorImpl) Metadata() map[string]string {
	return e.metadata
}

func (e *errorImpl) WithMetadata(metadata map[string]string) Error {
	e.metadata = metadata
	return e
}

// Error implements the error interface.
func (e *errorImpl) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *errorImpl) Unwrap() error {
	return e.cause
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var typed Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Code() == code.Code
}
