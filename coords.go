package calc

import (
	"strconv"
	"strings"
)

// Coords is an inclusive, zero-based rectangle. ColStart <= ColEnd and
// RowStart <= RowEnd must hold for a valid rectangle.
type Coords struct {
	ColStart int `json:"colStart" yaml:"colStart"`
	RowStart int `json:"rowStart" yaml:"rowStart"`
	ColEnd   int `json:"colEnd" yaml:"colEnd"`
	RowEnd   int `json:"rowEnd" yaml:"rowEnd"`
}

// CellCoords addresses a single cell
type CellCoords struct {
	ColIndex int `json:"colIndex" yaml:"colIndex"`
	RowIndex int `json:"rowIndex" yaml:"rowIndex"`
}

// FixableCoords adds a lock flag per edge. the flags are used when a
// reference is copied elsewhere ("$A$1" style), this package only carries
// them through.
type FixableCoords struct {
	Coords
	ColStartFixed bool `json:"colStartFixed,omitempty" yaml:"colStartFixed,omitempty"`
	RowStartFixed bool `json:"rowStartFixed,omitempty" yaml:"rowStartFixed,omitempty"`
	ColEndFixed   bool `json:"colEndFixed,omitempty" yaml:"colEndFixed,omitempty"`
	RowEndFixed   bool `json:"rowEndFixed,omitempty" yaml:"rowEndFixed,omitempty"`
}

// Rect builds a rectangle from two corners in any order
func Rect(col1, row1, col2, row2 int) Coords {
	return Coords{
		ColStart: min(col1, col2),
		RowStart: min(row1, row2),
		ColEnd:   max(col1, col2),
		RowEnd:   max(row1, row2),
	}
}

// CellRect is the 1x1 rectangle at a cell
func CellRect(c CellCoords) Coords {
	return Coords{ColStart: c.ColIndex, RowStart: c.RowIndex, ColEnd: c.ColIndex, RowEnd: c.RowIndex}
}

// Validate fails with #VALUE! when an edge is inverted or negative
func (c Coords) Validate() error {
	if c.ColStart < 0 || c.RowStart < 0 {
		return newFormulaErrorf(ErrorCodeValue, "negative coordinates in %v", c)
	}
	if c.ColStart > c.ColEnd || c.RowStart > c.RowEnd {
		return newFormulaErrorf(ErrorCodeValue, "inverted coordinates in %v", c)
	}
	return nil
}

// Width is the number of columns
func (c Coords) Width() int {
	return c.ColEnd - c.ColStart + 1
}

// Height is the number of rows
func (c Coords) Height() int {
	return c.RowEnd - c.RowStart + 1
}

// Contains checks whether a cell falls inside the rectangle
func (c Coords) Contains(cell CellCoords) bool {
	return cell.ColIndex >= c.ColStart && cell.ColIndex <= c.ColEnd &&
		cell.RowIndex >= c.RowStart && cell.RowIndex <= c.RowEnd
}

// Intersect returns the overlap of two rectangles
func (c Coords) Intersect(o Coords) (Coords, bool) {
	out := Coords{
		ColStart: max(c.ColStart, o.ColStart),
		RowStart: max(c.RowStart, o.RowStart),
		ColEnd:   min(c.ColEnd, o.ColEnd),
		RowEnd:   min(c.RowEnd, o.RowEnd),
	}
	if out.ColStart > out.ColEnd || out.RowStart > out.RowEnd {
		return Coords{}, false
	}
	return out, true
}

// Union returns the smallest rectangle covering both
func (c Coords) Union(o Coords) Coords {
	return Coords{
		ColStart: min(c.ColStart, o.ColStart),
		RowStart: min(c.RowStart, o.RowStart),
		ColEnd:   max(c.ColEnd, o.ColEnd),
		RowEnd:   max(c.RowEnd, o.RowEnd),
	}
}

// Offset shifts the rectangle
func (c Coords) Offset(cols, rows int) Coords {
	return Coords{
		ColStart: c.ColStart + cols,
		RowStart: c.RowStart + rows,
		ColEnd:   c.ColEnd + cols,
		RowEnd:   c.RowEnd + rows,
	}
}

// String renders A1 notation, "A1" for single cells and "A1:B2" otherwise
func (c Coords) String() string {
	start := CellCoords{ColIndex: c.ColStart, RowIndex: c.RowStart}.String()
	if c.ColStart == c.ColEnd && c.RowStart == c.RowEnd {
		return start
	}
	return start + ":" + CellCoords{ColIndex: c.ColEnd, RowIndex: c.RowEnd}.String()
}

func (c CellCoords) String() string {
	return ColumnName(c.ColIndex) + strconv.Itoa(c.RowIndex+1)
}

// ColumnName converts a zero-based column index to letters (0=A, 26=AA)
func ColumnName(col int) string {
	if col < 0 {
		return ""
	}
	var b strings.Builder
	var letters []byte
	for col >= 0 {
		letters = append(letters, byte('A'+col%26))
		col = col/26 - 1
	}
	for i := len(letters) - 1; i >= 0; i-- {
		b.WriteByte(letters[i])
	}
	return b.String()
}
