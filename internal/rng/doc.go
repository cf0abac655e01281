// Package rng provides a seedable, goroutine-safe random source and the
// dataset helpers built on it.
//
//	src := rng.New(4711)
//	points := rng.NormalPoints(src, 200)   // standard normal 2D points
//	idx := rng.Sample(src, len(points), 3) // 3 distinct indices
package rng
