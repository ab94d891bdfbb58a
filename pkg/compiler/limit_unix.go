//go:build !windows

package compiler

// DefaultMaxArgLength keeps the command under Linux's per-argument limit
// (MAX_ARG_STRLEN), which is the tighter bound for a long filter graph.
const DefaultMaxArgLength = 131072
