package dem

import "github.com/CS-SI/rugged-go/ruggederr"

// levelInfo describes one stored level of the min/max tree, in
// finest-to-coarsest construction order (index 0 is the first merge above
// the raw per-point preprocessed array; the last index is the root, a
// single row or column of super-cells).
type levelInfo struct {
	rows, cols  int
	columnMerge bool // true if this level was produced by merging columns
	offset      int  // start offset into the flat min/max arrays
}

// MinMaxTreeTile extends Tile with an implicit min/max k-d tree: a
// hierarchy of super-cell groups, each bounding the true elevation range of
// everything it covers, built bottom-up by alternately merging adjacent
// columns and rows. DuvenhageIntersector walks it coarse-to-fine to skip
// whole groups of cells that cannot contain the ray/terrain intersection.
type MinMaxTreeTile struct {
	Tile
	levels     []levelInfo // index 0 = finest stored level
	minTree    []float64
	maxTree    []float64
}

// Build constructs the min/max tree over the tile's current elevations.
// Must be called once after all SetElevation calls and before any query.
func (m *MinMaxTreeTile) Build() error {
	if m.IsEmpty() {
		return ruggederr.New(ruggederr.EmptyTile, m.Rows(), m.Cols())
	}

	rawMin, rawMax := m.preprocess()

	m.levels = computeLevels(m.Rows(), m.Cols())
	total := 0
	for i := range m.levels {
		m.levels[i].offset = total
		total += m.levels[i].rows * m.levels[i].cols
	}
	m.minTree = make([]float64, total)
	m.maxTree = make([]float64, total)

	srcMin, srcMax := rawMin, rawMax
	srcRows, srcCols := m.Rows(), m.Cols()
	for _, lvl := range m.levels {
		dstMin := m.minTree[lvl.offset : lvl.offset+lvl.rows*lvl.cols]
		dstMax := m.maxTree[lvl.offset : lvl.offset+lvl.rows*lvl.cols]
		mergeLevel(srcMin, srcMax, srcRows, srcCols, lvl.columnMerge, lvl.rows, lvl.cols, dstMin, dstMax)
		srcMin, srcMax = dstMin, dstMax
		srcRows, srcCols = lvl.rows, lvl.cols
	}
	return nil
}

// preprocess computes the raw (unstored) finest-grain min/max array, one
// entry per grid point (i, j): the min/max of (i,j) and whichever of its
// north (i+1), east (j+1) and north-east neighbors exist, so the array shares the tile's
// full rows x cols shape — capturing the bilinear cell range for interior
// points and degenerating to the point's own elevation at the last row and
// column.
func (m *MinMaxTreeTile) preprocess() (min, max []float64) {
	rows, cols := m.Rows(), m.Cols()
	min = make([]float64, rows*cols)
	max = make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			z, _ := m.Elevation(i, j)
			lo, hi := z, z
			if i+1 < rows {
				z2, _ := m.Elevation(i+1, j)
				lo, hi = minF(lo, z2), maxF(hi, z2)
			}
			if j+1 < cols {
				z2, _ := m.Elevation(i, j+1)
				lo, hi = minF(lo, z2), maxF(hi, z2)
			}
			if i+1 < rows && j+1 < cols {
				z2, _ := m.Elevation(i+1, j+1)
				lo, hi = minF(lo, z2), maxF(hi, z2)
			}
			min[i*cols+j] = lo
			max[i*cols+j] = hi
		}
	}
	return min, max
}

// computeLevels builds the merge sequence starting from shape (rows, cols):
// repeatedly merge columns (even stage) or rows (odd stage) pairwise while
// more than one row and more than one column remain, an odd last row or
// column carried unchanged into the next level. Returned finest-first.
func computeLevels(rows, cols int) []levelInfo {
	var levels []levelInfo
	stage := 0
	for rows > 1 && cols > 1 {
		if stage%2 == 0 {
			cols = (cols + 1) / 2
			levels = append(levels, levelInfo{rows: rows, cols: cols, columnMerge: true})
		} else {
			rows = (rows + 1) / 2
			levels = append(levels, levelInfo{rows: rows, cols: cols, columnMerge: false})
		}
		stage++
	}
	if len(levels) == 0 {
		// Already root-shaped (a single row or column of cells): one trivial
		// level equal to the raw array, so level queries still have a level
		// 1 to address.
		levels = append(levels, levelInfo{rows: rows, cols: cols, columnMerge: cols == 1})
	}
	return levels
}

// mergeLevel fills dstMin/dstMax (shape dstRows x dstCols) from srcMin/
// srcMax (shape srcRows x srcCols) by pairwise min/max over adjacent
// columns (columnMerge) or rows.
func mergeLevel(srcMin, srcMax []float64, srcRows, srcCols int, columnMerge bool, dstRows, dstCols int, dstMin, dstMax []float64) {
	if columnMerge {
		for i := 0; i < dstRows; i++ {
			for j := 0; j < dstCols; j++ {
				j0 := 2 * j
				lo, hi := srcMin[i*srcCols+j0], srcMax[i*srcCols+j0]
				if j1 := j0 + 1; j1 < srcCols {
					lo = minF(lo, srcMin[i*srcCols+j1])
					hi = maxF(hi, srcMax[i*srcCols+j1])
				}
				dstMin[i*dstCols+j] = lo
				dstMax[i*dstCols+j] = hi
			}
		}
		return
	}
	for i := 0; i < dstRows; i++ {
		i0 := 2 * i
		for j := 0; j < dstCols; j++ {
			lo, hi := srcMin[i0*srcCols+j], srcMax[i0*srcCols+j]
			if i1 := i0 + 1; i1 < srcRows {
				lo = minF(lo, srcMin[i1*srcCols+j])
				hi = maxF(hi, srcMax[i1*srcCols+j])
			}
			dstMin[i*dstCols+j] = lo
			dstMax[i*dstCols+j] = hi
		}
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Levels returns the number of stored levels, L. Valid level numbers for
// GetMinElevation/GetMaxElevation/IsColumnMerging are 1 (root) through L
// (finest).
func (m *MinMaxTreeTile) Levels() int { return len(m.levels) }

// superCellIndex returns the position of raw cell (i, j) within the
// super-cell grid at level, by applying every merge from the raw array down
// to that level.
func (m *MinMaxTreeTile) superCellIndex(i, j, level int) (int, int) {
	l := len(m.levels)
	row, col := i, j
	for k := 0; k <= l-level; k++ {
		if m.levels[k].columnMerge {
			col >>= 1
		} else {
			row >>= 1
		}
	}
	return row, col
}

func (m *MinMaxTreeTile) levelShape(level int) levelInfo {
	l := len(m.levels)
	return m.levels[l-level]
}

// GetMinElevation returns the minimum elevation bound for the super-cell
// containing raw cell (i, j) at the given level.
func (m *MinMaxTreeTile) GetMinElevation(i, j, level int) (float64, error) {
	if level < 1 || level > len(m.levels) {
		return 0, ruggederr.New(ruggederr.InvalidInput, "level out of range", level)
	}
	lvl := m.levelShape(level)
	row, col := m.superCellIndex(i, j, level)
	return m.minTree[lvl.offset+row*lvl.cols+col], nil
}

// GetMaxElevation returns the maximum elevation bound for the super-cell
// containing raw cell (i, j) at the given level.
func (m *MinMaxTreeTile) GetMaxElevation(i, j, level int) (float64, error) {
	if level < 1 || level > len(m.levels) {
		return 0, ruggederr.New(ruggederr.InvalidInput, "level out of range", level)
	}
	lvl := m.levelShape(level)
	row, col := m.superCellIndex(i, j, level)
	return m.maxTree[lvl.offset+row*lvl.cols+col], nil
}

// IsColumnMerging reports whether the merge from level to level-1 merged
// columns (true) or rows (false). Valid for level in [2, L+1], where L+1
// addresses the (unstored) merge from the raw array into the finest stored
// level.
func (m *MinMaxTreeTile) IsColumnMerging(level int) bool {
	l := len(m.levels)
	k := l - level + 1
	if k < 0 || k >= l {
		return true
	}
	return m.levels[k].columnMerge
}

// GetMergeLevel returns the deepest (finest) level at which cells (i1, j1)
// and (i2, j2) belong to the same super-cell, or 0 if they never merge
// within the stored levels (meaning they differ already at the finest
// level, or the tile has a single cell).
func (m *MinMaxTreeTile) GetMergeLevel(i1, j1, i2, j2 int) int {
	for level := len(m.levels); level >= 1; level-- {
		r1, c1 := m.superCellIndex(i1, j1, level)
		r2, c2 := m.superCellIndex(i2, j2, level)
		if r1 == r2 && c1 == c2 {
			return level
		}
	}
	return 0
}
