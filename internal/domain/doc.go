// Package domain contains the core business entities, value objects, and
// domain logic of the task tracker: tasks and their recurrence rules, shares,
// users, and the access roles derived from them. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
