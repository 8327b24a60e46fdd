package game

// Modifier records the original value of an attribute while one or more
// timed effects override it. The zero value means no active override.
//
// Several effects may stack on the same attribute; the original value is
// captured by the first Save and handed back by the Release that drops the
// last reference.
type Modifier struct {
	original float64
	refs     int
}

// Active reports whether an override is in effect.
func (m Modifier) Active() bool {
	return m.refs > 0
}

// Original returns the saved value. Only meaningful while Active.
func (m Modifier) Original() float64 {
	return m.original
}

// Save registers a new override of an attribute whose current value is cur.
func (m *Modifier) Save(cur float64) {
	if m.refs == 0 {
		m.original = cur
	}
	m.refs++
}

// Release drops one override. It returns the original value and true when
// the last override is released and the attribute must be restored.
func (m *Modifier) Release() (float64, bool) {
	if m.refs == 0 {
		return 0, false
	}
	m.refs--
	if m.refs > 0 {
		return 0, false
	}
	orig := m.original
	m.original = 0
	return orig, true
}

// Clear drops every override and reports the original value if one was
// active.
func (m *Modifier) Clear() (float64, bool) {
	if m.refs == 0 {
		return 0, false
	}
	orig := m.original
	*m = Modifier{}
	return orig, true
}
