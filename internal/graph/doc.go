// Package graph contains the compiled generator nodes.
//
// Every node is a gen.TryGenerator[value.Token, value.Value]: one drive
// yields the node's fragments and completes with its value or a failure.
// Nodes are compiled once and driven many times; each node restarts after
// completion (see package gen).
//
// Nodes are not safe for concurrent use. A node, and every node it owns,
// must be driven by one goroutine at a time.
package graph
