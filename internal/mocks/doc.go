// Package mocks provides shared test doubles.
//
// MemoryStore is an in-memory implementation of every store interface plus
// store.Transactor, with fault injection for error paths. Service, engine,
// scheduler and API tests run against it instead of PostgreSQL.
//
// MockJWTService and the testify-based service mocks let handler tests
// script collaborator behavior:
//
//	jwt := mocks.AcceptingJWTService(userID)
//	tasks := new(mocks.MockTaskService)
//	tasks.On("ListVisibleTasks", mock.Anything, userID).Return(nil, nil)
package mocks
