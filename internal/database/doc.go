// Package database provides the PostgreSQL adapter: connection pool setup,
// embedded schema migrations, and the repository implementations for charts,
// drawings, indicators, candles, and users.
package database
