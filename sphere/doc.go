// Package sphere defines points on the unit sphere and the metrics used to
// compare them. It includes:
//   - Point in polar/azimuth form with validation and unit-vector conversion
//   - Distance (great-circle angle) and ChordDistance
//   - BLOB encoding of points for SQLite storage
//   - Place model, Store interface and a SQLite-backed store
package sphere
