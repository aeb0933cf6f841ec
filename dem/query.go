package dem

// GroupShape returns the (rows, cols) of level's super-cell grid.
func (m *MinMaxTreeTile) GroupShape(level int) (rows, cols int) {
	lvl := m.levelShape(level)
	return lvl.rows, lvl.cols
}

// GroupBounds returns the [min, max] elevation bound for super-cell (R, C)
// at level, without needing a raw (i, j) to translate from.
func (m *MinMaxTreeTile) GroupBounds(level, R, C int) (min, max float64) {
	lvl := m.levelShape(level)
	idx := lvl.offset + R*lvl.cols + C
	return m.minTree[idx], m.maxTree[idx]
}

// SplitsColumns reports whether descending from level to level+1 (finer)
// splits a super-cell along columns (true) or rows (false).
func (m *MinMaxTreeTile) SplitsColumns(level int) bool {
	return m.IsColumnMerging(level + 1)
}

// Children returns the one or two level+1 super-cells that make up
// super-cell (R, C) at level. Root is level 1; level+1 must be <= Levels().
func (m *MinMaxTreeTile) Children(level, R, C int) [][2]int {
	childRows, childCols := m.GroupShape(level + 1)
	if m.SplitsColumns(level) {
		kids := [][2]int{{R, 2 * C}}
		if c2 := 2*C + 1; c2 < childCols {
			kids = append(kids, [2]int{R, c2})
		}
		return kids
	}
	kids := [][2]int{{2 * R, C}}
	if r2 := 2*R + 1; r2 < childRows {
		kids = append(kids, [2]int{r2, C})
	}
	return kids
}

// FinestRawCells returns the raw cell indices (i, j) making up the finest
// stored level's super-cell (R, C) — one or two cells, the last merge
// above the raw array not yet having been undone by this level's group.
func (m *MinMaxTreeTile) FinestRawCells(R, C int) [][2]int {
	if len(m.levels) == 0 {
		return nil
	}
	first := m.levels[0]
	if first.columnMerge {
		cells := [][2]int{{R, 2 * C}}
		if c2 := 2*C + 1; c2 < m.Cols() {
			cells = append(cells, [2]int{R, c2})
		}
		return cells
	}
	cells := [][2]int{{2 * R, C}}
	if r2 := 2*R + 1; r2 < m.Rows() {
		cells = append(cells, [2]int{r2, C})
	}
	return cells
}

// GroupLatLonBounds returns the geographic footprint of super-cell (R, C)
// at level, in the same point-grid index space CellIntersection works in
// (i.e. the rectangle of the raw cells the group covers, up to their
// north/east corner points, clamped to the tile's last row and column).
func (m *MinMaxTreeTile) GroupLatLonBounds(level, R, C int) (minLat, maxLat, minLon, maxLon float64) {
	rowSpan, colSpan := m.rawSpan(level)
	i0 := R * rowSpan
	j0 := C * colSpan
	i1 := i0 + rowSpan
	if i1 > m.Rows()-1 {
		i1 = m.Rows() - 1
	}
	j1 := j0 + colSpan
	if j1 > m.Cols()-1 {
		j1 = m.Cols() - 1
	}
	minLat = m.MinLat() + float64(i0)*m.LatStep()
	maxLat = m.MinLat() + float64(i1)*m.LatStep()
	minLon = m.MinLon() + float64(j0)*m.LonStep()
	maxLon = m.MinLon() + float64(j1)*m.LonStep()
	return minLat, maxLat, minLon, maxLon
}

// rawSpan returns, for level, the number of raw grid rows and columns a
// single super-cell spans: 2^(row merges applied between level and the raw
// array) and 2^(col merges applied), respectively.
func (m *MinMaxTreeTile) rawSpan(level int) (rowSpan, colSpan int) {
	l := len(m.levels)
	rowSpan, colSpan = 1, 1
	for k := 0; k <= l-level; k++ {
		if m.levels[k].columnMerge {
			colSpan *= 2
		} else {
			rowSpan *= 2
		}
	}
	return rowSpan, colSpan
}
