//go:build windows

package compiler

// DefaultMaxArgLength is the CreateProcess command line limit
const DefaultMaxArgLength = 32767
