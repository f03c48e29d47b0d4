// Package world defines the value types shared by every other package in
// the scheduler: chunk coordinates, the generation stage enum, and the
// per-stage neighbor requirements that drive cross-chunk dependency wiring.
//
// Nothing in this package is concurrent or stateful; it exists so that
// internal/dag, internal/holder, and internal/schedule all agree on the
// same vocabulary without importing each other.
package world
