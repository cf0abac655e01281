// Package kmeans implements the two halves of a Lloyd iteration over 2D points.
//
// Assign maps every point to its nearest centroid and Recompute turns the
// resulting clusters back into centroids. Converge repeats both until the
// centroid set stops moving.
package kmeans
