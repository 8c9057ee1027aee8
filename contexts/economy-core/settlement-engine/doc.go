// Package settlementengine implements the Prediction Settlement service for
// the moneywave monolith.
//
// The module owns the settlement line table and the terminal state transition
// on prediction games: a closed game is settled exactly once, redistributing
// loser stakes to winners net of the platform fee. Double settlement is a
// detectable error, never a silent recompute.
package settlementengine
