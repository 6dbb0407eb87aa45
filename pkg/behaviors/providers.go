// Package behaviors provides the stock behaviors: PropertyChanged, Timer,
// Performance and Log.
//
// Behaviors belong to exactly one host. When behaviors are created by an
// injector, every injection must construct a new instance; ProviderSet only
// contains constructors, so wire-generated injectors satisfy this.
package behaviors

import "github.com/google/wire"

// ProviderSet provides the stock behaviors for wire injectors.
var ProviderSet = wire.NewSet(
	NewPropertyChanged,
	NewDefaultTimer,
	NewPerformance,
	NewLog,
)
