// Package core contains the shared contracts of the intelmesh framework:
// the inter-agent Message, the AgentResult returned by every agent
// execution, the raw collector Record, the error taxonomy and the agent
// Directory used by the message bus for delivery.
//
// Higher level packages (bus, agent, fusion, quality, synthesis, engine)
// depend on core; core depends only on logging and the standard library.
package core
