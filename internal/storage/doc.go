// Package storage provides access to the WordPress posts and options tables.
//
// The package supports multiple types of storage:
// 1. StorageDB - for working with a MySQL, PostgreSQL or SQLite database.
// 2. StorageMemory - for keeping posts and options in memory.
// 3. DryRun - a wrapper that reads from another Store and discards writes.
//
// Journal records every change made through a relocation to a JSON-lines file.
package storage
