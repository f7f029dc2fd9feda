// Package service contains the task sharing use cases. Services coordinate the
// stores (internal/store), the permission resolver and the cache layer so that
// each mutation runs in one transaction and every listing it affects is
// invalidated before the call returns.
//
// Key components:
//
// 1. TaskService:
//   - Creates, reads, updates and deletes tasks on behalf of a requesting user
//   - Serves the permission-aware task listing through the cache
//
// 2. ShareService:
//   - Grants, revokes and lists task shares; only the owner may change them
//
// 3. Error Handling:
//   - Expected conditions are returned as sentinel errors (ErrNotFound,
//     ErrForbidden, ErrInvalidArgument) or as *domain.ValidationError
//   - Unexpected store failures are wrapped in *ServiceError, which matches
//     ErrTransientStore
//
// Services depend on store interfaces only, never on a specific database.
package service
