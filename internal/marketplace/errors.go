package marketplace

import "errors"

// Sentinel errors for settlement and sweep failures. Callers branch on these
// with errors.Is; messages carry the specific offer or capability.
var (
	// ErrNoProviders means a capability sweep produced zero offers
	ErrNoProviders = errors.New("no providers available")
	// ErrUnknownProvider means no adapter is registered under the requested id
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownStrategy means the selection strategy is not a known policy
	ErrUnknownStrategy = errors.New("unknown selection strategy")
	// ErrOfferNotFound means the offer id does not exist
	ErrOfferNotFound = errors.New("offer not found")
	// ErrOfferNotPending means the offer was already settled or expired
	ErrOfferNotPending = errors.New("offer is not pending")
	// ErrQuoteExpired means the offer's payment window has passed
	ErrQuoteExpired = errors.New("quote expired")
)
