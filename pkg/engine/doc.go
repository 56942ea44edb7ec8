// Package engine implements a minimal make-style dependency graph engine.
// Targets are declared in a Starlark rule script, staleness is derived from
// file modification timestamps and recipes run through mvdan.cc/sh's shell
// runtime. The goal is a small, portable replacement for the subset of make
// that simple projects actually use: explicit targets, phony targets and
// single-wildcard pattern rules.
package engine
