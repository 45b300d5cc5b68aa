// Package rules manages registration of the formatting rule set.
package rules

import (
	"github.com/donaldgifford/kfmt/internal/formatter"
)

var factories []formatter.Factory

// Register adds a rule factory to the registry. Registration order only
// breaks ties; the engine orders rules by their constraints.
func Register(f formatter.Factory) {
	factories = append(factories, f)
}

// Factories returns all registered rule factories in registration order.
func Factories() []formatter.Factory {
	return append([]formatter.Factory(nil), factories...)
}
