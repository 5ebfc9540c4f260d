// Package dashboard implements an incremental, checkpointed aggregation
// pipeline over broker trade exports: raw extracts are normalized into typed
// canonical records, merged into a deduplicated master record set, aggregated
// into calendar-aware monthly KPIs, and stitched with a synthetic future axis
// into a continuous plot table.
//
// The data flows strictly forward and every stage transition goes through the
// checkpoint store, so a run can re-enter at any stage and deleting all
// checkpoints reproduces identical artifacts from the same raw inputs.
package dashboard
