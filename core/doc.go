// Package core provides the foundational domain types and interfaces shared by
// every pathway package. It defines:
//
//   - Agents (units of domain logic invoked by the router)
//   - State (the single mutable record threaded through one request)
//   - Output records and typed payloads written under an agent's namespace key
//   - Schema (the registry of namespaces, payload kinds and per-field merge policies)
//   - The error taxonomy (validation, collaborator and routing errors)
//
// The package intentionally keeps implementation concerns (routing, persistence,
// concrete agents) out of scope, exposing small interfaces so that agents and
// collaborators can be tested in isolation.
package core
