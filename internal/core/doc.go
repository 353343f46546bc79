// Package core holds the locality dataset pipeline: raw rows from any
// [RowSource] are normalized into [LocalityRecord] values, thresholded and
// indexed into an immutable [Dataset], and served through filter, aggregate
// and lookup operations.
//
// # Pipeline
//
//  1. [Normalize] maps one raw row to a record, resolving column aliases,
//     zero-padding ids and reconciling proportion/percentage units
//  2. [Load] reads a source and [Build] applies the population threshold and
//     builds the id index
//  3. [Apply] selects records matching a [FilterSpec]; [DefaultFilterSpec]
//     derives the spec that spans the observed domain
//  4. [Aggregate] computes population-weighted stats (ratio of sums)
//
// Everything above is pure and safe for concurrent use over a shared
// dataset. [Session] owns the current dataset, replaces it atomically on
// [Session.Reload] and memoizes filter results per dataset generation.
//
// # Lookup Helpers
//
// [Jurisdictions] and [LocalitiesIn] feed pickers with Spanish collation,
// [Search] matches "localidad, provincia" ignoring accents, and [Bounds] and
// [Nearest] answer map-extent and proximity queries.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError]:
//
//   - SRC001-SRC004: source errors (unreachable, unsupported, malformed)
//   - DAT001-DAT002: dataset errors (unknown locality, not loaded)
//   - REQ001-REQ004: request errors (bad parameters, cancellation)
//   - RATE001-RATE002: throttling
package core
