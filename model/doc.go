// Package model defines the provider-agnostic abstraction the coach agent uses
// to ask a language model for advice.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (openai, anthropic) implement Model in subpackages so agents stay
// decoupled from vendor SDKs.
package model
