// Package catalog houses the in-memory implementation of core.Catalog. The
// interface itself lives in the core package to centralize domain contracts;
// keeping only implementations here prevents higher level packages (pipeline,
// job, server) from depending on concrete storage.
//
// Add additional backends (Postgres, SQLite, a remote catalog service, etc.)
// in sub-packages without changing any calling code - only the wiring layer
// needs to decide which implementation to instantiate.
package catalog
