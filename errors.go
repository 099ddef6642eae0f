/*
 * errors.go, part of gomatnet.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package matnet

import (
	"fmt"
	"strings"
)

// Kind classifies the failures this library can produce. Callers that need
// to branch on the class of a failure should use Kind/IsKind rather than
// matching message strings.
type Kind int

const (
	// KindBadInput covers malformed structures and parameters: cutoff <= 0,
	// zero-size cells, inconsistent slice lengths.
	KindBadInput Kind = iota
	// KindUnknownSpecies is returned when a structure contains an element
	// symbol the model was not built for.
	KindUnknownSpecies
	// KindEmptyGraph is returned when a structure yields no bonds within
	// the cutoff radius.
	KindEmptyGraph
	// KindOverlap is returned when two atoms (or an atom and one of its
	// periodic images) sit close enough to produce a zero-length bond.
	KindOverlap
	// KindNotFinite is returned when a NaN or Inf appears in hidden states,
	// outputs or gradients. It is surfaced, never clamped.
	KindNotFinite
	// KindBadBundle is returned when a persisted model's configuration
	// disagrees with its parameter tensors, or its version tag is unknown.
	KindBadBundle
	// KindBadState is returned when a fidelity/state index is out of the
	// range the model was configured for.
	KindBadState
)

// Error is the error type returned by this library. Following the
// decoration scheme of the rest of the codebase, each function that passes
// an Error along appends its name, so the final message carries the call
// path that produced it.
type Error struct {
	kind    Kind
	message string
	deco    []string
}

// NewError builds an Error of the given kind. Subpackages use it to stay
// within the one error taxonomy of the library.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return NewError(kind, format, args...)
}

// Error returns the message plus the decoration trail, if any.
func (err *Error) Error() string {
	if len(err.deco) == 0 {
		return err.message
	}
	return fmt.Sprintf("%s (in %s)", err.message, strings.Join(err.deco, "/"))
}

// Kind returns the failure class of the error.
func (err *Error) Kind() Kind { return err.kind }

// Decorate adds the dec string to the decoration trail of the error
// and returns the resulting trail.
func (err *Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.kind == kind
}

// errDecorate adds the caller's name to an error's trail when the error is
// ours, and otherwise wraps it so the trail is not lost.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Decorate(caller)
		return e
	}
	return &Error{kind: KindBadInput, message: err.Error(), deco: []string{caller}}
}

// PanicMsg is the message type used for panics. Panics are reserved for
// conditions that can only arise from a programming error, such as indexing
// an atom out of range; recoverable conditions use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrAtomOutOfRange = PanicMsg("gomatnet: requested atom out of range")
	ErrNilStructure   = PanicMsg("gomatnet: operation on a nil structure")
	ErrNoLattice      = PanicMsg("gomatnet: operation requires a periodic lattice")
)
