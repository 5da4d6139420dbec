// Package vendors implements the vendor abstraction layer: stable
// client-facing operation schemas per category (payment, banking, ...) with
// interchangeable vendors behind them.
//
// An abstracted call validates client input against the category's schema
// (required fields, types, defaults), selects a vendor (the caller's
// preference when healthy, otherwise the first non-deprecated vendor whose
// tool resolves), transforms the input through the vendor's mapping, and
// dispatches the mapped tool through the adapter registry.
//
// Transforms are text/templates with sprig functions rendering the vendor
// input as JSON; a programmatic TransformFunc exists for conversions a
// template cannot express. Client input never flows unchanged to a vendor
// when a transform is configured, and vendor identifiers never appear in the
// client-facing response shape.
//
// Deprecation is a marked state with a date; a deprecated vendor cannot be
// removed until 30 days after the mark.
package vendors
