package diag

import (
	"sort"
)

// Bag is an ordered, unbounded collection of diagnostics.
type Bag struct {
	items []Diagnostic
}

func NewBag(capacity int) *Bag {
	if capacity < 0 {
		capacity = 0
	}
	return &Bag{items: make([]Diagnostic, 0, capacity)}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) AddAll(ds []Diagnostic) {
	b.items = append(b.items, ds...)
}

// HasErrors reports whether any diagnostic has SevError.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Sort orders by file, line, column, severity (desc) and rule id
// so output is deterministic regardless of scan parallelism.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Location.File != dj.Location.File {
			return di.Location.File < dj.Location.File
		}
		if di.Location.Line != dj.Location.Line {
			return di.Location.Line < dj.Location.Line
		}
		if di.Location.Column != dj.Location.Column {
			return di.Location.Column < dj.Location.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.RuleID < dj.RuleID
	})
}

// Filter returns a new Bag holding the diagnostics accepted by keep.
func (b *Bag) Filter(keep func(*Diagnostic) bool) *Bag {
	out := NewBag(len(b.items))
	for i := range b.items {
		if keep(&b.items[i]) {
			out.items = append(out.items, b.items[i])
		}
	}
	return out
}

// GroupByFile groups ds by Location.File, preserving order within a file.
func GroupByFile(ds []Diagnostic) map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range ds {
		out[d.Location.File] = append(out[d.Location.File], d)
	}
	return out
}
