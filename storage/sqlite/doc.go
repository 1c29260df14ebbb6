// Package sqlite persists query results and imported asset records in a
// SQLite database.
package sqlite
