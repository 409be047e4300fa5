// Package task implements owner-scoped task persistence.
//
// Every operation takes the owner explicitly as an identity.UserID, and every store
// query filters by it. A task that exists but belongs to another owner is reported
// exactly like a task that does not exist.
package task
