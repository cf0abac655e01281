// Package kmeanslab provides an interactive, steppable K-means engine for 2D
// points.
//
// A Session owns one synthetic dataset, a target cluster count k, and the
// current centroids. It can be driven one iteration at a time or run to
// convergence, which makes it suitable for visualizing how Lloyd's algorithm
// moves the centroids.
//
// # Quick Start
//
//	ctx := context.Background()
//	s := kmeanslab.New(kmeanslab.WithSeed(42))
//
//	res, _ := s.Initialize(ctx, 3, kmeanslab.ModeRandom)
//	step, _ := s.Step(ctx)      // one assign/recompute round
//	out, _ := s.Converge(ctx)   // iterate until the centroids settle
//
// # Manual Placement
//
// In ModeManual, Initialize returns no centroids. Place them one at a time
// with PlaceCentroid; Step and Converge fail with ErrPreconditionFailed until
// exactly k are present:
//
//	s.Initialize(ctx, 2, kmeanslab.ModeManual)
//	s.PlaceCentroid(ctx, kmeanslab.Point{-1, -1})
//	s.PlaceCentroid(ctx, kmeanslab.Point{1, 1})
//	s.Step(ctx)
//
// # Algorithm
//
// Each iteration assigns every point to its nearest centroid by Euclidean
// distance (ties go to the lowest centroid index) and then moves each
// centroid to the mean of its cluster. A centroid whose cluster is empty is
// re-seeded uniformly in [0,1)^2.
//
// Converge stops when no coordinate moved by more than
// Tolerance.Abs + Tolerance.Rel*|new| (DefaultTolerance), and fails with
// ErrConvergenceTimeout after DefaultMaxIterations rounds. Both are
// adjustable per call:
//
//	s.Converge(ctx,
//	    kmeanslab.WithConvergeTolerance(kmeanslab.Tolerance{Abs: 1e-6}),
//	    kmeanslab.WithConvergeMaxIterations(50),
//	)
//
// # Export
//
// Export writes a snapshot of the session (dataset, centroids, clusters) to a
// blobstore.Store, optionally compressed with LZ4 or ZSTD:
//
//	store := blobstore.NewLocalStore("./runs")
//	info, _ := s.Export(ctx, store, kmeanslab.CompressionZSTD)
//
// ListExports and ReadExport inspect stored runs. A Session never loads a
// snapshot back.
//
// # Observability
//
//	logger := kmeanslab.NewJSONLogger(slog.LevelInfo)
//	metrics := &kmeanslab.BasicMetricsCollector{}
//	s := kmeanslab.New(
//	    kmeanslab.WithLogger(logger),
//	    kmeanslab.WithMetricsCollector(metrics),
//	)
//
// # Thread Safety
//
// All Session methods are safe for concurrent use. Operations are serialized,
// so a concurrent State never observes a half-finished step.
package kmeanslab
