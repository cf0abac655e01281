// Package resource implements the Controller that guards the HTTP surface.
//
// Two limits are managed:
//
//   - Requests: a token bucket refusing requests above a steady rate
//   - Converge: a weighted semaphore bounding in-flight converge runs
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    RequestsPerSecond:     50,
//	    Burst:                 100,
//	    MaxConcurrentConverge: 2,
//	})
//
//	if !rc.AllowRequest() {
//	    // reply 429
//	}
//
//	if err := rc.AcquireConverge(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseConverge()
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
