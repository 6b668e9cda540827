// Package entities registers the importable catalog kinds with the core
// registry. Import it for side effects.
package entities

// Each kind file registers itself from init().
