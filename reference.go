package calc

import (
	"strconv"
	"strings"
)

// Reference is a parsed reference string. either Name is set (a defined
// name) or Coords holds the rectangle. Sheet is empty when the reference
// does not name one.
type Reference struct {
	Sheet  string
	Name   string
	Coords FixableCoords
}

func (r Reference) String() string {
	body := r.Name
	if body == "" {
		body = r.Coords.Coords.String()
	}
	if r.Sheet == "" {
		return body
	}
	return quoteSheetName(r.Sheet) + "!" + body
}

// cellRef is a single parsed address with its lock flags
type cellRef struct {
	CellCoords
	colFixed bool
	rowFixed bool
}

// ParseReference parses "A1", "$A$1", "A1:B3", "A:C", "2:5", "Sheet1!A1",
// "'My Sheet'!A1:B2" and defined names. malformed input fails with #REF!.
func ParseReference(ref string) (Reference, error) {
	s := strings.TrimSpace(ref)
	if s == "" {
		return Reference{}, NewFormulaError(ErrorCodeRef, "empty reference")
	}

	var out Reference
	if bang := strings.LastIndex(s, "!"); bang != -1 {
		sheet, err := parseSheetName(s[:bang])
		if err != nil {
			return Reference{}, err
		}
		out.Sheet = sheet
		s = s[bang+1:]
	}

	start, end, isRange := strings.Cut(s, ":")
	if !isRange {
		if cell, err := parseCellAddress(start); err == nil {
			out.Coords = fixable(cell, cell)
			return out, nil
		}
		if !validName(start) {
			return Reference{}, newFormulaErrorf(ErrorCodeRef, "invalid reference %q", ref)
		}
		out.Name = start
		return out, nil
	}

	if a, err := parseCellAddress(start); err == nil {
		b, err := parseCellAddress(end)
		if err != nil {
			return Reference{}, newFormulaErrorf(ErrorCodeRef, "invalid reference %q", ref)
		}
		out.Coords = fixable(a, b)
		return out, nil
	}
	// whole columns (A:C) or whole rows (2:5)
	if c1, f1, ok := parseColumn(start); ok {
		c2, f2, ok := parseColumn(end)
		if !ok {
			return Reference{}, newFormulaErrorf(ErrorCodeRef, "invalid reference %q", ref)
		}
		out.Coords = fixable(
			cellRef{CellCoords: CellCoords{ColIndex: c1}, colFixed: f1},
			cellRef{CellCoords: CellCoords{ColIndex: c2, RowIndex: MaxRows - 1}, colFixed: f2},
		)
		return out, nil
	}
	if r1, f1, ok := parseRow(start); ok {
		r2, f2, ok := parseRow(end)
		if !ok {
			return Reference{}, newFormulaErrorf(ErrorCodeRef, "invalid reference %q", ref)
		}
		out.Coords = fixable(
			cellRef{CellCoords: CellCoords{RowIndex: r1}, rowFixed: f1},
			cellRef{CellCoords: CellCoords{ColIndex: MaxCols - 1, RowIndex: r2}, rowFixed: f2},
		)
		return out, nil
	}
	return Reference{}, newFormulaErrorf(ErrorCodeRef, "invalid reference %q", ref)
}

// fixable orders two corners into a rectangle, keeping each edge's lock
func fixable(a, b cellRef) FixableCoords {
	if a.ColIndex > b.ColIndex {
		a.ColIndex, b.ColIndex = b.ColIndex, a.ColIndex
		a.colFixed, b.colFixed = b.colFixed, a.colFixed
	}
	if a.RowIndex > b.RowIndex {
		a.RowIndex, b.RowIndex = b.RowIndex, a.RowIndex
		a.rowFixed, b.rowFixed = b.rowFixed, a.rowFixed
	}
	return FixableCoords{
		Coords:        Coords{ColStart: a.ColIndex, RowStart: a.RowIndex, ColEnd: b.ColIndex, RowEnd: b.RowIndex},
		ColStartFixed: a.colFixed,
		RowStartFixed: a.rowFixed,
		ColEndFixed:   b.colFixed,
		RowEndFixed:   b.rowFixed,
	}
}

// parseSheetName unquotes 'My Sheet' (with '' as an escaped quote)
func parseSheetName(s string) (string, error) {
	if strings.HasPrefix(s, "'") {
		if len(s) < 3 || !strings.HasSuffix(s, "'") {
			return "", newFormulaErrorf(ErrorCodeRef, "unterminated sheet name %s", s)
		}
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), nil
	}
	if s == "" || strings.ContainsAny(s, " '") {
		return "", newFormulaErrorf(ErrorCodeRef, "invalid sheet name %q", s)
	}
	return s, nil
}

func quoteSheetName(name string) string {
	for _, ch := range name {
		if !isLetter(ch) && !(ch >= '0' && ch <= '9') && ch != '_' && ch != '.' {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

// parseCellAddress parses "B7" or "$B$7" into zero-based coordinates
func parseCellAddress(s string) (cellRef, error) {
	var out cellRef
	col, colFixed, n := scanColumn(s)
	if n == 0 {
		return out, newFormulaErrorf(ErrorCodeRef, "invalid cell reference: %s", s)
	}
	row, rowFixed, ok := parseRow(s[n:])
	if !ok {
		return out, newFormulaErrorf(ErrorCodeRef, "invalid cell reference: %s", s)
	}
	out.ColIndex, out.RowIndex = col, row
	out.colFixed, out.rowFixed = colFixed, rowFixed
	return out, nil
}

// scanColumn reads a leading (optionally $-locked) column label. n is the
// number of bytes consumed, 0 when there is no valid label.
func scanColumn(s string) (col int, fixed bool, n int) {
	if strings.HasPrefix(s, "$") {
		fixed = true
		n = 1
	}
	start := n
	col = 0
	for n < len(s) && isLetter(rune(s[n])) {
		ch := s[n] &^ 0x20 // upper-case
		col = col*26 + int(ch-'A') + 1
		n++
		if col > MaxCols {
			return 0, false, 0
		}
	}
	if n == start {
		return 0, false, 0
	}
	return col - 1, fixed, n
}

// parseColumn parses a whole column label such as "C" or "$C"
func parseColumn(s string) (int, bool, bool) {
	col, fixed, n := scanColumn(s)
	if n == 0 || n != len(s) {
		return 0, false, false
	}
	return col, fixed, true
}

// parseRow parses a one-based row number such as "7" or "$7"
func parseRow(s string) (int, bool, bool) {
	fixed := strings.HasPrefix(s, "$")
	if fixed {
		s = s[1:]
	}
	if s == "" || s[0] < '1' || s[0] > '9' {
		return 0, false, false
	}
	num, err := strconv.Atoi(s)
	if err != nil || num > MaxRows {
		return 0, false, false
	}
	return num - 1, fixed, true
}
