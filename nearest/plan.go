package nearest

import "modernc.org/sqlite/vtab"

const (
	colDataset = iota
	colID
	colDistance
	colRadius
)

const (
	idxDatasetScan = iota
	idxDatasetMatch
	idxDatasetMatchRadius
)

// BestIndex requires dataset_id = ? and optionally pushes down MATCH on the id
// column and radius = ?.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var dataset, match, radius *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == colDataset && c.Op == vtab.OpEQ:
			dataset = c
		case c.Column == colID && c.Op == vtab.OpMATCH:
			match = c
		case c.Column == colRadius && c.Op == vtab.OpEQ:
			radius = c
		}
	}
	if dataset == nil {
		return ErrDatasetRequired
	}
	next := 0
	use := func(c *vtab.Constraint) {
		c.ArgIndex = next
		c.Omit = true
		next++
	}
	use(dataset)
	switch {
	case match == nil:
		info.IdxNum = idxDatasetScan
	case radius == nil:
		use(match)
		info.IdxNum = idxDatasetMatch
	default:
		use(match)
		use(radius)
		info.IdxNum = idxDatasetMatchRadius
	}
	return nil
}
