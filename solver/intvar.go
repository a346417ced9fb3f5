package solver

import "fmt"

// IntVar is an integer decision variable: a semantic domain plus listener
// demons grouped by event class. Every mutating operation first clips
// against the current domain; a call that would not shrink the domain is a
// no-op. A shrink records reversible saves, mutates, and raises the matching
// event classes. An emptied domain fails the current branch.
//
// The domain is a range [min, max] with explicit holes; min and max always
// sit on non-removed values.
type IntVar struct {
	s    *Solver
	name string

	min, max int64 // reversible
	removed  map[int64]struct{}

	rangeDemons  []*Demon
	boundDemons  []*Demon
	domainDemons []*Demon

	// Listener counts are reversible so demons attached mid-search detach
	// on backtrack; the slices above only ever grow.
	rangeCount  int64
	boundCount  int64
	domainCount int64
}

// NewIntVar creates a variable with domain [mi, ma].
// Panics when mi > ma (programmer error); an infeasible model is expressed
// with constraints, not an inverted range.
func (s *Solver) NewIntVar(mi, ma int64, name string) *IntVar {
	if mi > ma {
		panic(fmt.Sprintf("solver: invalid range [%d, %d]", mi, ma))
	}
	s.numVariables++
	if !s.params.StoreNames {
		name = ""
	} else if name == "" {
		name = fmt.Sprintf("x%d", s.numVariables-1)
	}

	return &IntVar{s: s, name: name, min: mi, max: ma}
}

// NewIntConst creates a variable bound to a single value.
func (s *Solver) NewIntConst(value int64) *IntVar {
	return s.NewIntVar(value, value, fmt.Sprintf("%d", value))
}

// Name returns the variable's name.
func (v *IntVar) Name() string { return v.name }

// String formats the variable with its current domain.
func (v *IntVar) String() string {
	if v.Bound() {
		return fmt.Sprintf("%s(%d)", v.name, v.min)
	}

	return fmt.Sprintf("%s[%d..%d]", v.name, v.min, v.max)
}

// Min returns the smallest value of the domain.
func (v *IntVar) Min() int64 { return v.min }

// Max returns the largest value of the domain.
func (v *IntVar) Max() int64 { return v.max }

// Range returns both bounds.
func (v *IntVar) Range() (int64, int64) { return v.min, v.max }

// Bound reports whether the domain is a single value.
func (v *IntVar) Bound() bool { return v.min == v.max }

// Value returns the assigned value.
// Panics when the variable is not bound (programmer error).
func (v *IntVar) Value() int64 {
	if !v.Bound() {
		panic("solver: Value() on an unbound variable")
	}

	return v.min
}

// Contains reports whether val is in the domain.
func (v *IntVar) Contains(val int64) bool {
	if val < v.min || val > v.max {
		return false
	}
	_, gone := v.removed[val]

	return !gone
}

// Size returns the number of values in the domain.
func (v *IntVar) Size() int64 {
	size := v.max - v.min + 1
	for hole := range v.removed {
		if hole > v.min && hole < v.max {
			size--
		}
	}

	return size
}

// nextInDomain returns the first domain value at or above val, or max+1.
func (v *IntVar) nextInDomain(val int64) int64 {
	for val <= v.max {
		if _, gone := v.removed[val]; !gone {
			return val
		}
		val++
	}

	return v.max + 1
}

// prevInDomain returns the last domain value at or below val, or min-1.
func (v *IntVar) prevInDomain(val int64) int64 {
	for val >= v.min {
		if _, gone := v.removed[val]; !gone {
			return val
		}
		val--
	}

	return v.min - 1
}

// SetMin raises the lower bound to mi.
func (v *IntVar) SetMin(mi int64) {
	if mi <= v.min {
		return
	}
	if mi > v.max {
		v.s.Fail()
	}
	newMin := v.nextInDomain(mi)
	if newMin > v.max {
		v.s.Fail()
	}
	v.s.SaveAndSetInt64(&v.min, newMin)
	v.raise(true, v.min == v.max)
}

// SetMax lowers the upper bound to ma.
func (v *IntVar) SetMax(ma int64) {
	if ma >= v.max {
		return
	}
	if ma < v.min {
		v.s.Fail()
	}
	newMax := v.prevInDomain(ma)
	if newMax < v.min {
		v.s.Fail()
	}
	v.s.SaveAndSetInt64(&v.max, newMax)
	v.raise(true, v.min == v.max)
}

// SetRange clips the domain to [mi, ma].
func (v *IntVar) SetRange(mi, ma int64) {
	if mi > ma {
		v.s.Fail()
	}
	v.SetMin(mi)
	v.SetMax(ma)
}

// SetValue binds the variable to val.
func (v *IntVar) SetValue(val int64) {
	if !v.Contains(val) {
		v.s.Fail()
	}
	v.SetRange(val, val)
}

// RemoveValue removes one value from the domain.
func (v *IntVar) RemoveValue(val int64) {
	if !v.Contains(val) {
		return
	}
	switch {
	case val == v.min && val == v.max:
		v.s.Fail()
	case val == v.min:
		v.SetMin(val + 1)
	case val == v.max:
		v.SetMax(val - 1)
	default:
		if v.removed == nil {
			v.removed = make(map[int64]struct{})
		}
		v.removed[val] = struct{}{}
		v.s.AddBacktrackAction(func(*Solver) { delete(v.removed, val) })
		v.raise(false, false)
	}
}

// RemoveValues removes several values.
func (v *IntVar) RemoveValues(vals []int64) {
	for _, val := range vals {
		v.RemoveValue(val)
	}
}

// raise enqueues the demons matching the event classes of a shrink. Every
// shrink is a domain event; bound changes add the range class; binding adds
// the value-assigned class.
func (v *IntVar) raise(rangeChanged, becameBound bool) {
	for _, d := range v.domainDemons[:v.domainCount] {
		v.s.queue.enqueue(d)
	}
	if rangeChanged {
		for _, d := range v.rangeDemons[:v.rangeCount] {
			v.s.queue.enqueue(d)
		}
	}
	if becameBound {
		for _, d := range v.boundDemons[:v.boundCount] {
			v.s.queue.enqueue(d)
		}
	}
}

// WhenRange attaches d to bound-change events.
func (v *IntVar) WhenRange(d *Demon) {
	v.rangeDemons = appendListener(v.rangeDemons, d, v.s, &v.rangeCount)
}

// WhenBound attaches d to the value-assigned event.
func (v *IntVar) WhenBound(d *Demon) {
	v.boundDemons = appendListener(v.boundDemons, d, v.s, &v.boundCount)
}

// WhenDomain attaches d to every domain-removal event.
func (v *IntVar) WhenDomain(d *Demon) {
	v.domainDemons = appendListener(v.domainDemons, d, v.s, &v.domainCount)
}

// appendListener grows a demon list under a reversible count, so listeners
// attached inside a level detach when it is undone.
func appendListener(list []*Demon, d *Demon, s *Solver, count *int64) []*Demon {
	list = append(list[:*count], d)
	s.SaveAndSetInt64(count, int64(len(list)))

	return list
}

// Var returns the variable itself; IntVar is the fixed point of the
// expression cast.
func (v *IntVar) Var() *IntVar { return v }

// DomainIterator iterates the current domain in increasing order. A
// reversible iterator keeps its position on the trail: pushing a level saves
// it, popping restores it, which suits monotonic scans across levels.
type DomainIterator struct {
	v          *IntVar
	pos        int64
	reversible bool
}

// NewDomainIterator returns a fresh iterator over v's domain.
func (v *IntVar) NewDomainIterator(reversible bool) *DomainIterator {
	it := &DomainIterator{v: v, reversible: reversible}
	it.Init()

	return it
}

// Init positions the iterator on the domain minimum.
func (it *DomainIterator) Init() { it.set(it.v.min) }

// Ok reports whether the iterator points at a domain value.
func (it *DomainIterator) Ok() bool { return it.pos <= it.v.max }

// Value returns the current domain value.
func (it *DomainIterator) Value() int64 { return it.pos }

// Next advances to the next domain value, skipping holes.
func (it *DomainIterator) Next() { it.set(it.v.nextInDomain(it.pos + 1)) }

func (it *DomainIterator) set(pos int64) {
	if it.reversible {
		it.v.s.SaveAndSetInt64(&it.pos, pos)

		return
	}
	it.pos = pos
}
