// Package ranking computes post relevance scores.
//
// A score is the post's weighted engagement, normalized for high-reach authors,
// decayed by age, and multiplied by viewer-specific factors:
//
//	score := ranking.Score(in, author, now, viewer.Multipliers(in, place))
//
// The recompute job passes NeutralMultipliers() to produce the viewer-agnostic
// baseline cached on each post. Feed requests pass the multipliers derived from a
// ViewerContext. NeutralViewer(id).Multipliers returns the same neutral values, so
// both paths run through one scoring function.
package ranking
