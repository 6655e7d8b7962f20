package marketplace

import (
	"math"

	"github.com/jonathan/outreach-agent/internal/types"
)

// scoreFunc maps an offer to a comparable score; higher wins
type scoreFunc func(o *types.Offer) float64

// scoreForStrategy returns the scoring function for a known strategy.
// The switch is exhaustive over the closed strategy set.
func scoreForStrategy(strategy types.Strategy) (scoreFunc, error) {
	switch strategy {
	case types.StrategyCheapest:
		return func(o *types.Offer) float64 { return -o.PriceUSD }, nil
	case types.StrategyFastest:
		// Missing latency is treated as infinitely slow
		return func(o *types.Offer) float64 {
			if o.LatencyEstimate == nil {
				return math.Inf(-1)
			}
			return -float64(*o.LatencyEstimate)
		}, nil
	case types.StrategyReliable:
		// Missing reliability is treated as a neutral 0.5
		return func(o *types.Offer) float64 {
			if o.ReliabilityScore == nil {
				return 0.5
			}
			return *o.ReliabilityScore
		}, nil
	case types.StrategyBalanced:
		return balancedScore, nil
	default:
		return nil, ErrUnknownStrategy
	}
}

// balancedScore is the weighted composite 0.4*reliability + 0.4*(1/price) +
// 0.2*(1/latency). Weights and the raw (unnormalized) inputs are kept as-is
// for compatibility with previously issued offers.
func balancedScore(o *types.Offer) float64 {
	reliability := 0.5
	if o.ReliabilityScore != nil {
		reliability = *o.ReliabilityScore
	}
	score := 0.4 * reliability
	if o.PriceUSD > 0 {
		score += 0.4 * (1.0 / o.PriceUSD)
	}
	if o.LatencyEstimate != nil && *o.LatencyEstimate > 0 {
		score += 0.2 * (1.0 / float64(*o.LatencyEstimate))
	}
	return score
}

// SelectBestOffer deterministically reduces an offer set to the winner under
// the given strategy. Ties keep the first offer in sweep order. An empty set
// returns nil: the caller must treat that as "no provider available".
func SelectBestOffer(offers []*types.Offer, strategy types.Strategy) (*types.Offer, error) {
	score, err := scoreForStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, nil
	}

	best := offers[0]
	bestScore := score(best)
	for _, o := range offers[1:] {
		if s := score(o); s > bestScore {
			best = o
			bestScore = s
		}
	}
	return best, nil
}
