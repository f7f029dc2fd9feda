// Package postgres implements the store interfaces on PostgreSQL using
// database/sql with the pgx stdlib driver.
//
// Every store accepts a store.DBTX, so the same implementation serves pooled
// access and transactional access through Transactor. Schema migrations are
// embedded in the binary and applied with goose.
package postgres
