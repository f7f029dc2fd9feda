// Package recurring turns recurring task templates into concrete
// occurrences.
//
// A recurring task carries a rule and the next instant it is due. Each
// materialization pass creates one occurrence for every due template and
// re-anchors its next due date to the first slot after the pass time, so
// missed periods are never back-filled and a template is never materialized
// twice for the same slot.
package recurring
