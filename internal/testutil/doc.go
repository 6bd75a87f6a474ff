// Package testutil provides shared helpers for integration tests: a
// thread-safe output buffer, a harness that runs a model end to end through
// the application, and assertions over the resulting grid.
package testutil
