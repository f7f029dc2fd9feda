// Package permission resolves a user's effective access to tasks.
//
// Access is derived from ownership and shares: the owner always has the
// owner role, a share grants viewer or editor, and everyone else has none.
// Editing requires owner or editor; deleting and re-sharing require the owner.
package permission
