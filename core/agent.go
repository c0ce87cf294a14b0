package core

import "context"

// Agent defines the contract every domain agent implements.
//
// Agents receive a read-only View of the request state and return the Output
// record for their own namespace. The router owns the shared State and merges
// the returned record; an agent never writes to the state directly and must
// never produce output for another agent's namespace.
//
// Implementations must:
//   - Respect context cancellation (the router applies a per-agent timeout)
//   - Return a degraded Output instead of an error when an optional dependency
//     is unavailable
//   - Be safe for concurrent use across requests
type Agent interface {
	Name() string
	Description() string
	Run(ctx context.Context, view View) (Output, error)
}

// AgentFunc adapts a plain function to the Run half of the Agent contract.
type AgentFunc func(ctx context.Context, view View) (Output, error)

// Kinded is implemented by agents that attach a typed payload to their
// output. The router declares the returned kind in the Schema.
type Kinded interface {
	PayloadKind() string
}
