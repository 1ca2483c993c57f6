//go:build !darwin || !cgo

// Package darwin compiles to an empty stub when the macOS backends are
// unavailable; platform.NewProvider then reports ErrUnsupported.
package darwin
