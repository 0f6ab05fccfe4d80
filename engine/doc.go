// Package engine orchestrates a complete investigation run: registered
// collector agents execute concurrently under a bounded worker limit, their
// records flow through fusion into synthesis, and the quality gate renders
// the compliance verdict before the product is released.
//
// The engine owns the agent directory and the message bus for the run, so
// callers never touch global registries. Collectors are registered by name
// at startup; the registry is static for the lifetime of the engine and
// there is no dynamic capability loading.
//
// Run state is discarded at completion: conversation history lives in the
// session store only while the run executes, and nothing is persisted across
// runs.
package engine
