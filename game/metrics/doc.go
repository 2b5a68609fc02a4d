// Package metrics exposes Prometheus collectors for the Train Program Game.
//
// A Recorder owns a private registry so tests and multiple servers in one
// process do not collide on the global one. The game service calls it for
// every dispatched intent, executed queue, finalized run and background
// playback, and the API mounts Handler at /metrics.
package metrics
