// Package agent contains reusable building blocks for core.Agent
// implementations:
//
//  1. Identity plumbing shared by every agent (Base)
//  2. A function adapter for small or test agents (Func)
//  3. A model-backed advisor agent (Coach) with templated instructions
//
// Domain agents live in subpackages (swim, scout). Agents never touch the
// shared state directly: they read a core.View and return a core.Output for
// their own namespace. A missing optional dependency yields a degraded output
// instead of an error.
package agent
