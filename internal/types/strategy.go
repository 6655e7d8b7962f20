package types

import "fmt"

// Strategy names a deterministic policy for reducing a set of offers to one.
type Strategy string

// Supported offer-selection strategies
const (
	StrategyCheapest Strategy = "cheapest"
	StrategyFastest  Strategy = "fastest"
	StrategyReliable Strategy = "reliable"
	StrategyBalanced Strategy = "balanced"
)

// ParseStrategy converts a string into a known Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCheapest, StrategyFastest, StrategyReliable, StrategyBalanced:
		return Strategy(s), nil
	case "":
		return StrategyCheapest, nil
	default:
		return "", fmt.Errorf("unknown strategy: %q", s)
	}
}

// Valid reports whether the strategy is one of the known policies
func (s Strategy) Valid() bool {
	_, err := ParseStrategy(string(s))
	return err == nil && s != ""
}
