// Package nearest implements a SQLite virtual table answering k-nearest
// queries over points on the unit sphere.
//
// Each virtual table t owns a shadow table _nearest_t holding dataset_id, id,
// label, meta and an encoded point BLOB. MATCH takes the query point and rows
// come back nearest first with the great-circle distance in the hidden
// distance column; an equality constraint on the hidden radius column drops
// rows farther than the radius.
//
//	CREATE VIRTUAL TABLE places USING nearest(place_id, index=cover);
//	SELECT place_id, distance FROM places
//	WHERE dataset_id = 'cities' AND place_id MATCH '[1.2, -0.4]' AND radius = 0.1;
//
// Built indexes are cached in process per database, table and dataset, and
// persisted in point_index_storage. Triggers on the shadow table drop both.
package nearest
