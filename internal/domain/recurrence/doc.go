// Package recurrence computes the next due instant of a recurrence rule.
//
// The computation is pure: it depends only on the rule and a reference
// instant, and interprets the rule's wall-clock time in the reference's
// location. The result is always strictly after the reference, so repeated
// regeneration can never move a due date backwards.
package recurrence
