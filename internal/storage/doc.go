// Package storage keeps the integration run history in SQLite.
//
// The schema is embedded and migrated with golang-migrate when the
// repository opens. Times are stored as UTC RFC 3339 text.
package storage
