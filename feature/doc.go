// Package feature holds the stock particle features
//
// Each feature implements effect.Feature plus the capability interfaces it needs:
// spawners decide how many particles each instance emits, initializers fill the
// spawned range, updaters run over every live particle once per frame.
package feature
