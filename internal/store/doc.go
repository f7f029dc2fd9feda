// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Multi-step operations that must observe a consistent view (read a task,
// check access, write) run through Transactor.InTx, which hands the callback
// a Stores bundle bound to one transaction.
package store
