// Package status implements the error taxonomy of spec.md §7. It maps the
// spec's flat, named status kinds onto github.com/grailbio/base/errors's
// closed Kind enum (the teacher's own error-classification idiom, used
// throughout e.g. encoding/pam/fieldio/reader.go's `e.Kind ==
// errors.NotExist` checks) and additionally assigns each spec kind a stable
// small integer for wire transmission, since ACK/NACK/QueryResult envelopes
// (spec §6) need an integer code rather than a Go error value.
package status

import (
	"github.com/grailbio/base/errors"
)

// Kind is one of the named status kinds of spec.md §7.
type Kind int32

const (
	OK Kind = iota
	// FIN is not an error; it marks the termination sequence (spec §4.1
	// Termination, §7 Taxonomy).
	FIN

	// Communication errors: send/recv/probe/bcast/invalid-tag/received-NACK.
	Communication

	// ProcessLifecycle covers init failures.
	ProcessLifecycle

	// FileDisk covers missing/unreadable/write-failed.
	FileDisk

	// Configuration covers missing key / invalid value.
	Configuration

	// Data covers invalid type, invalid geometry, unsupported combination,
	// missing metadata.
	Data

	// Partitioning covers invalid partition / partitioning failed.
	Partitioning

	// April covers create failed / unexpected result.
	April

	// Query covers invalid type / invalid result type / invalid input.
	Query
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case FIN:
		return "FIN"
	case Communication:
		return "communication"
	case ProcessLifecycle:
		return "process-lifecycle"
	case FileDisk:
		return "file-disk"
	case Configuration:
		return "configuration"
	case Data:
		return "data"
	case Partitioning:
		return "partitioning"
	case April:
		return "april"
	case Query:
		return "query"
	default:
		return "unknown"
	}
}

// errKind maps a spec Kind onto the teacher's errors.Kind, used whenever we
// need to raise a Go error (rather than merely encode a wire status) that
// plays well with errors.E()/errors.Is() call sites elsewhere in the tree.
func (k Kind) errKind() errors.Kind {
	switch k {
	case Communication:
		return errors.Net
	case ProcessLifecycle:
		return errors.Fatal
	case FileDisk:
		return errors.NotExist
	case Configuration:
		return errors.Precondition
	case Data:
		return errors.Invalid
	case Partitioning:
		return errors.Internal
	case April:
		return errors.Internal
	case Query:
		return errors.Invalid
	default:
		return errors.Other
	}
}

// Error is a status-carrying error, analogous to the teacher's
// *errors.Error, but also retaining the spec Kind needed to encode a wire
// status code.
type Error struct {
	Kind Kind
	err  *errors.Error
}

func (e *Error) Error() string { return e.err.Error() }

// Unwrap supports errors.Is/As against the underlying *errors.Error.
func (e *Error) Unwrap() error { return e.err }

// New constructs a status Error in the style of errors.E(...): the first
// string argument becomes the message, subsequent args become context,
// mirroring call sites like errors.E(err, "context", detail) seen throughout
// the teacher (markduplicates/metrics.go, encoding/fastq/downsample.go).
func New(kind Kind, args ...interface{}) *Error {
	eargs := append([]interface{}{kind.errKind()}, args...)
	return &Error{Kind: kind, err: errors.E(eargs...)}
}

// Wrap attaches a spec Kind to an existing error, preserving it as the
// cause.
func Wrap(kind Kind, err error, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	eargs := append([]interface{}{kind.errKind(), err}, args...)
	return &Error{Kind: kind, err: errors.E(eargs...)}
}

// KindOf classifies an arbitrary error for wire transmission. A nil error is
// OK; a *Error keeps its Kind; anything else is reported as Data, which is
// the conservative choice for an unclassified failure reaching the wire
// boundary (it is never communication or process-lifecycle, so it never
// triggers the fatal disconnect path).
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	if se, ok := err.(*Error); ok {
		return se.Kind
	}
	return Data
}
