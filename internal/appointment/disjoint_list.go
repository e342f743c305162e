package appointment

// DisjointList holds appointments no two of which overlap. Mutations validate
// first and leave the list untouched on error. Ordering is only refreshed by
// Sort so callers can batch inserts.
//
// A DisjointList is not safe for concurrent use.
type DisjointList struct {
	items []Appointment
}

// NewDisjointList builds a list from items, rejecting overlaps.
func NewDisjointList(items ...Appointment) (*DisjointList, error) {
	l := &DisjointList{}
	if err := l.SetAppointments(items); err != nil {
		return nil, err
	}
	l.Sort()
	return l, nil
}

// Len returns the number of appointments.
func (l *DisjointList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Contains reports whether an equal appointment is present.
func (l *DisjointList) Contains(a Appointment) bool {
	return l.indexOf(a) >= 0
}

// Overlaps reports whether candidate overlaps any member.
func (l *DisjointList) Overlaps(candidate Appointment) bool {
	_, ok := l.firstOverlap(candidate, -1)
	return ok
}

// FirstOverlap returns the first member, in list order, that overlaps
// candidate. It is the member Add would report.
func (l *DisjointList) FirstOverlap(candidate Appointment) (Appointment, bool) {
	return l.firstOverlap(candidate, -1)
}

// Add inserts a. An equal member yields ErrDuplicate; an overlapping member
// yields an *OverlapError naming it.
func (l *DisjointList) Add(a Appointment) error {
	if l.Contains(a) {
		return ErrDuplicate
	}
	if existing, ok := l.firstOverlap(a, -1); ok {
		return &OverlapError{Candidate: a, Existing: existing}
	}
	l.items = append(l.items, a)
	return nil
}

// Remove deletes the member equal to a.
func (l *DisjointList) Remove(a Appointment) error {
	idx := l.indexOf(a)
	if idx < 0 {
		return ErrNotFound
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

// SetAppointment replaces target with edited in place. target itself is not
// considered when checking edited for overlaps.
func (l *DisjointList) SetAppointment(target, edited Appointment) error {
	idx := l.indexOf(target)
	if idx < 0 {
		return ErrNotFound
	}
	if !target.Equal(edited) && l.Contains(edited) {
		return ErrDuplicate
	}
	if existing, ok := l.firstOverlap(edited, idx); ok {
		return &OverlapError{Candidate: edited, Existing: existing}
	}
	l.items[idx] = edited
	return nil
}

// SetAppointments replaces every member with items. Equal entries are
// collapsed; any pairwise overlap is rejected.
func (l *DisjointList) SetAppointments(items []Appointment) error {
	unique := dedupe(items)
	for i := 0; i < len(unique)-1; i++ {
		for j := i + 1; j < len(unique); j++ {
			if unique[i].OverlapsWith(unique[j]) {
				return &OverlapError{Candidate: unique[j], Existing: unique[i]}
			}
		}
	}
	l.items = unique
	return nil
}

// Sort orders the members by Compare.
func (l *DisjointList) Sort() {
	Sort(l.items)
}

// Items returns a copy of the members in their current order.
func (l *DisjointList) Items() []Appointment {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	out := make([]Appointment, len(l.items))
	copy(out, l.items)
	return out
}

// Equal reports whether both lists hold the same appointments, in any order.
func (l *DisjointList) Equal(other *DisjointList) bool {
	if l.Len() != other.Len() {
		return false
	}
	for _, item := range l.Items() {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

func (l *DisjointList) indexOf(a Appointment) int {
	if l == nil {
		return -1
	}
	for i, item := range l.items {
		if item.Equal(a) {
			return i
		}
	}
	return -1
}

func (l *DisjointList) firstOverlap(candidate Appointment, skip int) (Appointment, bool) {
	if l == nil {
		return Appointment{}, false
	}
	for i, item := range l.items {
		if i == skip {
			continue
		}
		if item.OverlapsWith(candidate) {
			return item, true
		}
	}
	return Appointment{}, false
}
