// Package store defines the persistence boundary: a Sink that inserts and
// queries single records by table name, and a Catalog of pre-declared table
// schemas used to validate records before any outbound call.
//
// Backends live in subpackages (memory, postgres, supabase). Wrap a backend
// with Validating so that a record failing validation never reaches it.
package store
