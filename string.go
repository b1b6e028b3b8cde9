package calc

// StringTable interns worksheet text with reference counting. ID 0 is
// never handed out and stands for "no string".
type StringTable struct {
	ids       map[string]uint32
	values    map[uint32]string
	refCounts map[uint32]int
	nextID    uint32
}

// NewStringTable creates an empty table
func NewStringTable() *StringTable {
	return &StringTable{
		ids:       make(map[string]uint32),
		values:    make(map[uint32]string),
		refCounts: make(map[uint32]int),
		nextID:    1,
	}
}

// Intern returns the ID for s, adding it or bumping its reference count
func (st *StringTable) Intern(s string) uint32 {
	if id, ok := st.ids[s]; ok {
		st.refCounts[id]++
		return id
	}
	id := st.nextID
	st.nextID++
	st.ids[s] = id
	st.values[id] = s
	st.refCounts[id] = 1
	return id
}

// Lookup returns the text for an ID
func (st *StringTable) Lookup(id uint32) (string, bool) {
	s, ok := st.values[id]
	return s, ok
}

// Release drops one reference. the string is forgotten when no references
// remain; the return value reports that.
func (st *StringTable) Release(id uint32) bool {
	s, ok := st.values[id]
	if !ok {
		return false
	}
	st.refCounts[id]--
	if st.refCounts[id] > 0 {
		return false
	}
	delete(st.ids, s)
	delete(st.values, id)
	delete(st.refCounts, id)
	return true
}

// RefCount returns the number of live references to an ID
func (st *StringTable) RefCount(id uint32) int {
	return st.refCounts[id]
}

// Len returns the number of distinct strings
func (st *StringTable) Len() int {
	return len(st.ids)
}
