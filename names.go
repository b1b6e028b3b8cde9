package calc

import (
	"sort"
	"strings"
)

// DefinedName is a workbook-level name bound to a rectangle on a sheet
type DefinedName struct {
	Name   string `json:"name" yaml:"name"`
	Sheet  string `json:"sheet" yaml:"sheet"`
	Coords Coords `json:"coords" yaml:"coords"`
}

// NameTable holds defined names. lookups are case-insensitive, the
// spelling of the first definition is kept for display.
type NameTable struct {
	byKey map[string]DefinedName
}

// NewNameTable creates an empty table
func NewNameTable() *NameTable {
	return &NameTable{byKey: make(map[string]DefinedName)}
}

// Define binds name to a rectangle, replacing any previous binding. names
// must start with a letter or underscore, contain only letters, digits,
// underscores and dots, and must not read as a cell address.
func (nt *NameTable) Define(name, sheet string, coords Coords) error {
	if !validName(name) {
		return NewApplicationError(InvalidArgument, "invalid defined name: "+name)
	}
	if err := coords.Validate(); err != nil {
		return wrapApplicationError(InvalidArgument, err, "invalid coordinates for %s", name)
	}
	key := strings.ToUpper(name)
	if prev, ok := nt.byKey[key]; ok {
		name = prev.Name
	}
	nt.byKey[key] = DefinedName{Name: name, Sheet: sheet, Coords: coords}
	return nil
}

// Undefine removes a name, reporting whether it existed
func (nt *NameTable) Undefine(name string) bool {
	key := strings.ToUpper(name)
	_, ok := nt.byKey[key]
	delete(nt.byKey, key)
	return ok
}

// Resolve looks a name up
func (nt *NameTable) Resolve(name string) (DefinedName, bool) {
	d, ok := nt.byKey[strings.ToUpper(name)]
	return d, ok
}

// Names returns all defined names sorted by key
func (nt *NameTable) Names() []DefinedName {
	out := make([]DefinedName, 0, len(nt.byKey))
	for _, d := range nt.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToUpper(out[i].Name) < strings.ToUpper(out[j].Name)
	})
	return out
}

// Len returns the number of defined names
func (nt *NameTable) Len() int {
	return len(nt.byKey)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		switch {
		case ch == '_' || isLetter(ch):
		case i > 0 && (ch == '.' || ch >= '0' && ch <= '9'):
		default:
			return false
		}
	}
	if _, err := parseCellAddress(name); err == nil {
		return false
	}
	u := strings.ToUpper(name)
	return u != "TRUE" && u != "FALSE"
}

func isLetter(ch rune) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z'
}
