// Package storage owns database handles, the embedded schema, and driver error
// classification shared by the Postgres and SQLite stores.
//
// Pools and handles are owned by the caller of the constructors here; stores built
// on top must not close them.
package storage
