// Package interval implements disjoint half-open interval-list operations
// over a Hilbert-ordered cell domain. The representation and algorithms are
// adapted from the teacher's BED interval-union package
// (github.com/grailbio/bio/interval), which represents a genomic
// interval-union as a flat, sorted []PosType of alternating start/end values.
// Here the same flat representation stores Hilbert cell-index intervals for
// the APRIL A-list and F-list (spec.md §3, §4.3) and the interval arithmetic
// that drives the APRIL intermediate filter's decision tables.
package interval
