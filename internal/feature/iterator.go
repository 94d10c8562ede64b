package feature

// Iterator is a one-shot, pull-based stream of features.
//
//	it, err := c.Features()
//	if err != nil { ... }
//	defer it.Close()
//	for it.Next() {
//	    f := it.Feature()
//	}
//	if err := it.Err(); err != nil { ... }
//
// Once Next returns false the iterator is exhausted; Err reports why.
type Iterator interface {
	Next() bool
	Feature() Feature
	Err() error
	Close() error
}

// Collection is a named feature sequence sharing one schema.
type Collection struct {
	Name   string
	Schema *Schema
	open   func() (Iterator, error)
}

// NewCollection returns a collection whose Features calls open.
func NewCollection(name string, schema *Schema, open func() (Iterator, error)) *Collection {
	return &Collection{Name: name, Schema: schema, open: open}
}

// SliceCollection returns a re-iterable collection over features.
func SliceCollection(name string, schema *Schema, features []Feature) *Collection {
	return NewCollection(name, schema, func() (Iterator, error) {
		return SliceIterator(features), nil
	})
}

// Features opens a fresh iterator over the collection.
func (c *Collection) Features() (Iterator, error) {
	return c.open()
}

type sliceIterator struct {
	features []Feature
	pos      int
}

// SliceIterator iterates over an in-memory slice.
func SliceIterator(features []Feature) Iterator {
	return &sliceIterator{features: features, pos: -1}
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.features) {
		it.pos = len(it.features)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Feature() Feature {
	if it.pos < 0 || it.pos >= len(it.features) {
		return Feature{}
	}
	return it.features[it.pos]
}

func (it *sliceIterator) Err() error   { return nil }
func (it *sliceIterator) Close() error { return nil }

// FuncIterator adapts a pull function. next returns ok=false at the end of
// the stream and a non-nil error to stop it with a failure.
func FuncIterator(next func() (Feature, bool, error), closeFn func() error) Iterator {
	return &funcIterator{next: next, close: closeFn}
}

type funcIterator struct {
	next  func() (Feature, bool, error)
	close func() error
	cur   Feature
	err   error
	done  bool
}

func (it *funcIterator) Next() bool {
	if it.done {
		return false
	}
	f, ok, err := it.next()
	if err != nil {
		it.err = err
	}
	if !ok || err != nil {
		it.done = true
		it.cur = Feature{}
		return false
	}
	it.cur = f
	return true
}

func (it *funcIterator) Feature() Feature { return it.cur }
func (it *funcIterator) Err() error       { return it.err }

func (it *funcIterator) Close() error {
	it.done = true
	if it.close != nil {
		return it.close()
	}
	return nil
}

// Collect drains c into a slice. On error nothing is returned.
func Collect(c *Collection) ([]Feature, error) {
	it, err := c.Features()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Feature
	for it.Next() {
		out = append(out, it.Feature())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
