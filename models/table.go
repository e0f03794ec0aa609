package models

import "fmt"

// TableListener receives the row changes of a Table, typically to update a view.
type TableListener interface {
	TableReset(rows [][]any, moreRows int)
	RowsInserted(start int, rows [][]any, moreRows int)
	RowsRemoved(start, end int)
	RowsMoved(start, end, destination int)
	RowUpdated(row int, data []any)
}

// Table presents objects of one class as rows, with one cell per column of the
// class. Changes to column properties of a row's object are forwarded to listeners.
type Table struct {
	class   *Class
	columns []Column
	objects []*Object
	cancels map[*Object]func()

	// BatchSize limits the rows sent with a reset or insert; 0 sends all.
	BatchSize int

	// Less, when set, keeps rows sorted as they are appended.
	Less func(a, b *Object) bool

	listeners []TableListener
}

func NewTable(c *Class) *Table {
	return &Table{
		class:   c,
		columns: c.lists.clone().Columns,
		cancels: make(map[*Object]func()),
	}
}

func (t *Table) Class() *Class { return t.class }
func (t *Table) Columns() []Column { return append([]Column(nil), t.columns...) }
func (t *Table) RowCount() int { return len(t.objects) }
func (t *Table) Object(row int) *Object { return t.objects[row] }

// RoleNames returns the column names in order.
func (t *Table) RoleNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the cell values of a row.
func (t *Table) Row(row int) []any {
	o := t.objects[row]
	cells := make([]any, len(t.columns))
	for i, c := range t.columns {
		cells[i] = o.Get(c.Name)
	}
	return cells
}

// Listen adds a listener and sends it the current rows.
func (t *Table) Listen(l TableListener) {
	t.listeners = append(t.listeners, l)
	rows, moreRows := t.Rows(0, -1, t.BatchSize)
	l.TableReset(rows, moreRows)
}

// Rows returns count rows from start, at most batchSize of them when batchSize is
// positive, and the number of rows left out by the batch limit. A negative count
// is for all remaining rows.
func (t *Table) Rows(start, count, batchSize int) ([][]any, int) {
	rowCount, moreRows := t.RowCount(), 0
	if start < 0 {
		start = 0
	}
	if count < 0 {
		count = rowCount - start
	}
	if start+count > rowCount {
		if start >= rowCount {
			start = rowCount
		}
		count = rowCount - start
		if count < 0 {
			count = 0
		}
	}

	if batchSize > 0 && count > batchSize {
		moreRows = count - batchSize
		count = batchSize
	}

	rows := make([][]any, count)
	for i := range rows {
		rows[i] = t.Row(start + i)
	}
	return rows, moreRows
}

// Append adds objects as rows. Objects must be instances of the table's class or
// a class derived from it.
func (t *Table) Append(rows ...Model) error {
	objs := make([]*Object, 0, len(rows))
	for _, m := range rows {
		o, ok := ObjectOf(m)
		if !ok {
			return errNotModel
		}
		if !o.class.Is(t.class) {
			return fmt.Errorf("table of %s: cannot add %s", t.class, o)
		}
		objs = append(objs, o)
	}

	start := len(t.objects)
	for _, o := range objs {
		t.objects = append(t.objects, o)
		t.watch(o)
	}
	if len(objs) == 0 {
		return nil
	}
	if t.Less != nil {
		SortInserted(t, start, len(t.objects))
	} else {
		t.Inserted(start, len(objs))
	}
	return nil
}

// Remove removes count rows from start.
func (t *Table) Remove(start, count int) {
	removed := append([]*Object(nil), t.objects[start:start+count]...)
	t.objects = append(t.objects[:start], t.objects[start+count:]...)
	for _, o := range removed {
		if cancel, ok := t.cancels[o]; ok && t.index(o) < 0 {
			cancel()
			delete(t.cancels, o)
		}
	}
	t.Removed(start, count)
}

func (t *Table) index(o *Object) int {
	for i, ro := range t.objects {
		if ro == o {
			return i
		}
	}
	return -1
}

// Move moves a row to destination and notifies listeners.
func (t *Table) Move(src, destination int) {
	t.RowMove(src, destination)
	t.Moved(src, 1, destination)
}

func (t *Table) watch(o *Object) {
	if _, ok := t.cancels[o]; ok {
		return
	}
	t.cancels[o] = o.Observe(func(c Change) {
		if !t.hasColumn(c.Name) {
			return
		}
		for row, ro := range t.objects {
			if ro != o {
				continue
			}
			if t.Less != nil {
				if dst := SortUpdated(t, row); dst != row {
					t.Moved(row, 1, dst)
					row = dst
				}
			}
			t.Updated(row)
			return
		}
	})
}

func (t *Table) hasColumn(name string) bool {
	for _, col := range t.columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// Close stops observing the row objects.
func (t *Table) Close() {
	for o, cancel := range t.cancels {
		cancel()
		delete(t.cancels, o)
	}
}

func (t *Table) Reset() {
	rows, moreRows := t.Rows(0, -1, t.BatchSize)
	for _, l := range t.listeners {
		l.TableReset(rows, moreRows)
	}
}

func (t *Table) Inserted(start, count int) {
	rows, moreRows := t.Rows(start, count, t.BatchSize)
	for _, l := range t.listeners {
		l.RowsInserted(start, rows, moreRows)
	}
}

func (t *Table) Removed(start, count int) {
	for _, l := range t.listeners {
		l.RowsRemoved(start, start+count-1)
	}
}

func (t *Table) Moved(start, count, destination int) {
	for _, l := range t.listeners {
		l.RowsMoved(start, start+count-1, destination)
	}
}

func (t *Table) Updated(row int) {
	data := t.Row(row)
	for _, l := range t.listeners {
		l.RowUpdated(row, data)
	}
}

// RowLess compares rows with Less.
func (t *Table) RowLess(i, j int) bool {
	return t.Less(t.objects[i], t.objects[j])
}

// RowMove moves row src to index dst without notifying listeners.
func (t *Table) RowMove(src, dst int) {
	if src == dst {
		return
	}
	o := t.objects[src]
	t.objects = append(t.objects[:src], t.objects[src+1:]...)
	t.objects = append(t.objects[:dst], append([]*Object{o}, t.objects[dst:]...)...)
}

// ByColumn returns a Less function ordering rows by a float, int or string column.
func ByColumn(name string) func(a, b *Object) bool {
	return func(a, b *Object) bool {
		va, vb := a.Get(name), b.Get(name)
		if fa, ok := toFloat(va); ok {
			if fb, ok := toFloat(vb); ok {
				return fa < fb
			}
		}
		return fmt.Sprint(va) < fmt.Sprint(vb)
	}
}
