package models

import "sort"

// SortableTable is implemented by tables whose rows are kept in order by
// SortInserted and SortUpdated.
type SortableTable interface {
	RowCount() int
	Inserted(start, count int)

	// RowLess reports whether row i sorts before row j.
	RowLess(i, j int) bool
	// RowMove moves row src to index dst without notifying listeners.
	RowMove(src, dst int)
}

// SortInserted moves the rows appended at [start, end) to their sorted position
// among the rows before them. Rows before start must already be sorted. Listeners
// get one Inserted call per contiguous run of new rows.
func SortInserted(table SortableTable, start, end int) {
	runStart, runLen := 0, 0
	for i := start; i < end; i++ {
		dst := sort.Search(i, func(j int) bool { return table.RowLess(i, j) })
		table.RowMove(i, dst)

		if runLen > 0 && dst >= runStart && dst <= runStart+runLen {
			runLen++
			continue
		}
		if runLen > 0 {
			table.Inserted(runStart, runLen)
		}
		runStart, runLen = dst, 1
	}
	if runLen > 0 {
		table.Inserted(runStart, runLen)
	}
}

// SortUpdated moves a changed row to its sorted position and returns its new index.
// All other rows must be sorted.
func SortUpdated(table SortableTable, row int) int {
	dst := row
	for dst > 0 && table.RowLess(dst, dst-1) {
		table.RowMove(dst, dst-1)
		dst--
	}
	for dst < table.RowCount()-1 && table.RowLess(dst+1, dst) {
		table.RowMove(dst, dst+1)
		dst++
	}
	return dst
}
