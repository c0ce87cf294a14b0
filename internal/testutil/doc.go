// Package testutil contains fakes for the external collaborators (page and
// repository fetchers) and a builder for routed states, used across tests to
// avoid network access and boilerplate. They are not intended for production
// usage.
package testutil
