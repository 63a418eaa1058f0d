// Package potential owns the mesh model and the SOR solver for the 2D
// Laplace problem over a rectangular domain.
//
// Responsibilities: point representation with a lock flag, the mapping from
// millimetre coordinates to mesh indices, fixing lines and rectangles to a
// constant potential, seeding free points, the successive over-relaxation
// loop, and the per-grid diagnostics log.
// Key types: Point, Grid, Result, IterationRecord.
//
// Row 0 of the mesh is the bottom edge of the physical geometry. Text
// snapshots print the highest row first so the table reads top-down.
//
// Dependency rule: no file, database or plotting code is allowed in this
// package. Exporters consume Table, Values, Matrix and the log text.
package potential
