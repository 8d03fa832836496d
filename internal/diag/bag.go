package diag

import (
	"cmp"
	"slices"
)

const bagHardLimit = 1<<16 - 1

// Bag collects diagnostics up to a limit. It is not safe for concurrent use;
// the driver gives every contract its own bag and merges them afterwards.
type Bag struct {
	items []Diagnostic
	limit int
}

// NewBag returns a bag keeping at most limit diagnostics. A limit outside
// (0, 65535] means 65535.
func NewBag(limit int) *Bag {
	if limit <= 0 || limit > bagHardLimit {
		limit = bagHardLimit
	}
	return &Bag{items: make([]Diagnostic, 0, min(limit, 64)), limit: limit}
}

// Add appends d unless the bag is full. It reports whether d was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) == b.limit {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Cap is the current limit.
func (b *Bag) Cap() int { return b.limit }

func (b *Bag) Len() int { return len(b.items) }

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Worst returns the highest severity in the bag and false when it is empty.
func (b *Bag) Worst() (Severity, bool) {
	if len(b.items) == 0 {
		return 0, false
	}
	worst := b.items[0].Severity
	for _, d := range b.items[1:] {
		worst = max(worst, d.Severity)
	}
	return worst, true
}

// HasErrors reports whether any diagnostic is an error.
func (b *Bag) HasErrors() bool {
	sev, ok := b.Worst()
	return ok && sev >= SevError
}

// HasWarnings reports whether any diagnostic is a warning or worse.
func (b *Bag) HasWarnings() bool {
	sev, ok := b.Worst()
	return ok && sev >= SevWarning
}

// Merge appends every diagnostic of other, raising the limit to fit.
func (b *Bag) Merge(other *Bag) {
	if other == nil || len(other.items) == 0 {
		return
	}
	b.limit = min(max(b.limit, len(b.items)+len(other.items)), bagHardLimit)
	room := b.limit - len(b.items)
	b.items = append(b.items, other.items[:min(room, len(other.items))]...)
}

// Sort orders by contract, subject, severity (worst first), code and message.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Contract, y.Contract),
			cmp.Compare(x.Primary, y.Primary),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
			cmp.Compare(x.Message, y.Message),
		)
	})
}

// Dedup keeps the first of diagnostics sharing contract, code, subject and
// message.
func (b *Bag) Dedup() {
	type identity struct {
		contract string
		code     Code
		primary  Subject
		msg      string
	}
	seen := make(map[identity]bool, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		id := identity{d.Contract, d.Code, d.Primary, d.Message}
		if seen[id] {
			return true
		}
		seen[id] = true
		return false
	})
}
