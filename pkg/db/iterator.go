package db

// Entry is one key-value pair yielded by an Iterator.
type Entry struct {
	Key   string
	Value []byte
}

// NewSliceIterator returns an Iterator over an already materialized result
// set, in slice order. Backends without a native cursor collect their rows
// into an owned buffer first and hand it here, which is also what gives
// their iterators snapshot semantics.
func NewSliceIterator(entries []Entry) Iterator {
	return &sliceIterator{entries: entries, pos: -1}
}

type sliceIterator struct {
	entries []Entry
	pos     int
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Key() string {
	return it.entries[it.pos].Key
}

func (it *sliceIterator) Value() []byte {
	return it.entries[it.pos].Value
}

func (it *sliceIterator) Close() error {
	return nil
}
