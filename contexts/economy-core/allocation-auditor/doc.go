// Package allocationauditor cross-checks hourly pool allocations along two
// independent aggregation paths: the category-level rollup and the sum of
// per-game allocations grouped by category. The two must agree to the micro.
// The auditor only reports; it never repairs.
package allocationauditor
