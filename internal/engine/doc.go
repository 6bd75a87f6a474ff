// Package engine executes model node trees over a grid: rule nodes rewrite
// cells, branch nodes schedule their children, and the interpreter drives the
// tree turn by turn with a deterministic random stream. Heuristic machinery
// (fields, observations, trajectory search) lives alongside the nodes that
// use it.
//
// The package knows nothing about model syntax; trees arrive already built,
// typically from modelhcl.
package engine
