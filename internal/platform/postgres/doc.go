// Package postgres implements the store interfaces and the task store on
// PostgreSQL through database/sql and the pgx stdlib driver.
//
// Every store accepts a store.DBTX so the same code runs on a pool or inside
// a transaction obtained with WithTx. Driver errors are translated by
// MapError into the store error kinds; schema changes live in the embedded
// goose migrations.
package postgres
