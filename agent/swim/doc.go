// Package swim implements the swim-recruiting domain agents: nutrition,
// meet preparation, time tracking, travel logistics, recruiting research and
// the general status agent used as the routing default.
//
// Every agent reads a core.View and returns an Output under its own
// namespace, with a typed payload declared by PayloadKind. Missing inputs or
// unavailable collaborators produce degraded outputs.
package swim
