// Package trace implements the $trace sink (spec §6): when a program's
// $trace variable is truthy, every kernel operation is echoed to the sink
// as a labeled assignment. Writer.Intern can give shape handles o_N
// names, but Writer.Emit does not use it: each line shows the value's
// display form, so repeated handles are not given a shared name.
package trace

import (
	"fmt"
	"io"

	"github.com/dolthub/swiss"
)

// Entry is one traced event: Label names the operation (e.g. the module
// or built-in that produced it), Value is its display form.
type Entry struct {
	Label string
	Value string
}

// Sink receives traced entries.
type Sink interface {
	Emit(Entry)
}

// Writer is the default Sink, printing one `label = value` line per
// entry. Its Intern method hands out o_1, o_2, ... names per handle;
// Emit prints e.Value as given and does not intern.
type Writer struct {
	Output io.Writer

	// ids is the handle-interning table, backed by a swiss-table hash map
	// for the same hot-path reason lang/dynamic's variable binding cache
	// uses one.
	ids  *swiss.Map[any, string]
	next int
}

// NewWriter returns a Writer-backed Sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{Output: w, ids: swiss.NewMap[any, string](8)}
}

// Intern returns the stable name for handle, allocating a fresh o_N name
// the first time it is seen.
func (w *Writer) Intern(handle any) string {
	if id, ok := w.ids.Get(handle); ok {
		return id
	}
	w.next++
	id := fmt.Sprintf("o_%d", w.next)
	w.ids.Put(handle, id)
	return id
}

func (w *Writer) Emit(e Entry) {
	fmt.Fprintf(w.Output, "%s = %s\n", e.Label, e.Value)
}
