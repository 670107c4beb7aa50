// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected.
type Kind int

const (
	// InvalidState a precondition on the caller's lock or arguments was violated.
	InvalidState Kind = iota
	// TransferFailure the external asset movement failed.
	TransferFailure
	// Unauthorized the caller is not permitted to perform the operation.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case InvalidState:
		return "invalid state"
	case TransferFailure:
		return "transfer failure"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// ErrRevert is returned by operations that were rejected wholesale,
// leaving no observable state change.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func NewInvalidState(message string) *ErrRevert {
	return New(InvalidState, message)
}

func NewTransferFailure(cause error) *ErrRevert {
	return New(TransferFailure, cause.Error())
}

func NewUnauthorized(message string) *ErrRevert {
	return New(Unauthorized, message)
}

func (e *ErrRevert) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// IsRevertErr reports whether err is a revert of any kind.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

func isKind(err error, kind Kind) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind == kind
	}
	return false
}

// IsInvalidState reports whether err is an InvalidState revert.
func IsInvalidState(err error) bool {
	return isKind(err, InvalidState)
}

// IsTransferFailure reports whether err is a TransferFailure revert.
func IsTransferFailure(err error) bool {
	return isKind(err, TransferFailure)
}

// IsUnauthorized reports whether err is an Unauthorized revert.
func IsUnauthorized(err error) bool {
	return isKind(err, Unauthorized)
}
