package calc

import (
	"iter"
	"math/bits"
	"slices"
	"strings"
)

const (
	ChunkRows = 256                   // rows per chunk - power of 2 for efficient modulo
	ChunkCols = 256                   // columns per chunk - matches typical viewport size
	ChunkSize = ChunkRows * ChunkCols // 65536 cells per chunk

	MaxRows = 1 << 20 // 1048576 rows per sheet
	MaxCols = 1 << 14 // 16384 columns per sheet
)

// chunkKey indexes chunks inside a Worksheet
type chunkKey struct {
	row int
	col int
}

// chunk is a 256x256 region of cells in structure-of-arrays layout. only
// types and occupied exist up front, value arrays are allocated on first
// use. cells are indexed column-first (localCol*ChunkRows + localRow).
type chunk struct {
	types    []uint8
	occupied []uint64 // one bit per cell
	count    int

	numbers   []float64           // numbers, booleans (0/1) and error codes (lazy)
	stringIDs []uint32            // text and error messages (lazy)
	rich      map[uint32]RichData // rich values by cell index (lazy)
}

func newChunk() *chunk {
	return &chunk{
		types:    make([]uint8, ChunkSize),
		occupied: make([]uint64, ChunkSize/64),
	}
}

func (c *chunk) setNumber(idx uint32, v float64) {
	if c.numbers == nil {
		c.numbers = make([]float64, ChunkSize)
	}
	c.numbers[idx] = v
}

func (c *chunk) setString(idx uint32, id uint32) {
	if c.stringIDs == nil {
		c.stringIDs = make([]uint32, ChunkSize)
	}
	c.stringIDs[idx] = id
}

// Worksheet is sparse cell storage partitioned into chunks. memory is only
// allocated for regions that hold data, and reading a rectangle costs time
// proportional to its populated cells.
type Worksheet struct {
	name        string
	chunks      map[chunkKey]*chunk
	strings     *StringTable
	totalCells  int
	cellsByType [6]uint32
}

// NewWorksheet creates an empty sheet. strings may be shared between the
// sheets of a workbook; nil gives the sheet its own table.
func NewWorksheet(name string, table *StringTable) *Worksheet {
	if table == nil {
		table = NewStringTable()
	}
	return &Worksheet{
		name:    name,
		chunks:  make(map[chunkKey]*chunk),
		strings: table,
	}
}

// Name returns the sheet name
func (w *Worksheet) Name() string {
	return w.name
}

func locate(row, col int) (chunkKey, uint32) {
	key := chunkKey{row: row / ChunkRows, col: col / ChunkCols}
	idx := uint32((col%ChunkCols)*ChunkRows + row%ChunkRows)
	return key, idx
}

func checkCellBounds(row, col int) error {
	if row < 0 || col < 0 || row >= MaxRows || col >= MaxCols {
		return newFormulaErrorf(ErrorCodeRef, "cell (%d, %d) is outside the sheet", row, col)
	}
	return nil
}

// Value returns the value stored at a cell, nil when empty
func (w *Worksheet) Value(row, col int) Scalar {
	if checkCellBounds(row, col) != nil {
		return nil
	}
	key, idx := locate(row, col)
	c, ok := w.chunks[key]
	if !ok {
		return nil
	}
	return w.read(c, idx)
}

// Cell returns the stored cell at a position, nil when empty
func (w *Worksheet) Cell(row, col int) *Cell {
	v := w.Value(row, col)
	if v == nil {
		return nil
	}
	key, idx := locate(row, col)
	return &Cell{
		Type:  CellType(w.chunks[key].types[idx]),
		Row:   uint32(row),
		Col:   uint32(col),
		Value: v,
	}
}

func (w *Worksheet) read(c *chunk, idx uint32) Scalar {
	switch CellType(c.types[idx]) {
	case CellValueTypeNumber:
		return c.numbers[idx]
	case CellValueTypeBoolean:
		return c.numbers[idx] != 0
	case CellValueTypeString:
		s, _ := w.strings.Lookup(c.stringIDs[idx])
		return s
	case CellValueTypeError:
		msg, _ := w.strings.Lookup(c.stringIDs[idx])
		return NewFormulaError(ErrorCode(c.numbers[idx]), msg)
	case CellValueTypeRichData:
		return c.rich[idx]
	default:
		return nil
	}
}

// SetCell stores a value. nil clears the cell; values outside the scalar
// union are rejected with #VALUE!, positions outside the sheet with #REF!.
func (w *Worksheet) SetCell(row, col int, value any) error {
	if err := checkCellBounds(row, col); err != nil {
		return err
	}
	v, err := NormalizeScalar(value)
	if err != nil {
		return err
	}
	if v == nil {
		w.RemoveCell(row, col)
		return nil
	}

	key, idx := locate(row, col)
	c, ok := w.chunks[key]
	if !ok {
		c = newChunk()
		w.chunks[key] = c
	}
	oldType := CellType(c.types[idx])
	if oldType == CellValueTypeEmpty {
		c.count++
		w.totalCells++
	} else {
		w.release(c, idx)
		w.cellsByType[oldType]--
	}

	var newType CellType
	switch x := v.(type) {
	case float64:
		newType = CellValueTypeNumber
		c.setNumber(idx, x)
	case bool:
		newType = CellValueTypeBoolean
		c.setNumber(idx, boolToNumber(x))
	case string:
		newType = CellValueTypeString
		c.setString(idx, w.strings.Intern(x))
	case *FormulaError:
		newType = CellValueTypeError
		c.setNumber(idx, float64(x.Code))
		c.setString(idx, w.strings.Intern(x.Message))
	case RichData:
		newType = CellValueTypeRichData
		if c.rich == nil {
			c.rich = make(map[uint32]RichData)
		}
		c.rich[idx] = x
	}
	c.types[idx] = uint8(newType)
	c.occupied[idx/64] |= 1 << (idx % 64)
	w.cellsByType[newType]++
	return nil
}

// release drops the string or rich payload held by a cell
func (w *Worksheet) release(c *chunk, idx uint32) {
	switch CellType(c.types[idx]) {
	case CellValueTypeString, CellValueTypeError:
		if id := c.stringIDs[idx]; id != 0 {
			w.strings.Release(id)
			c.stringIDs[idx] = 0
		}
	case CellValueTypeRichData:
		delete(c.rich, idx)
	}
}

// RemoveCell clears a cell. chunks left without cells are dropped.
func (w *Worksheet) RemoveCell(row, col int) {
	if checkCellBounds(row, col) != nil {
		return
	}
	key, idx := locate(row, col)
	c, ok := w.chunks[key]
	if !ok || c.types[idx] == uint8(CellValueTypeEmpty) {
		return
	}
	w.release(c, idx)
	w.cellsByType[c.types[idx]]--
	c.types[idx] = uint8(CellValueTypeEmpty)
	c.occupied[idx/64] &^= 1 << (idx % 64)
	c.count--
	w.totalCells--
	if c.count == 0 {
		delete(w.chunks, key)
	}
}

// Populated yields the non-empty cells inside bounds in column-major order
// with sheet coordinates. empty cells are skipped with the occupancy bitmap.
func (w *Worksheet) Populated(bounds Coords) iter.Seq2[CellCoords, Scalar] {
	return func(yield func(CellCoords, Scalar) bool) {
		if bounds.Validate() != nil || len(w.chunks) == 0 {
			return
		}
		rowChunks := w.rowChunks(bounds)
		for col := bounds.ColStart; col <= min(bounds.ColEnd, MaxCols-1); col++ {
			chunkCol := col / ChunkCols
			for _, chunkRow := range rowChunks {
				c, ok := w.chunks[chunkKey{row: chunkRow, col: chunkCol}]
				if !ok {
					continue
				}
				first := max(bounds.RowStart, chunkRow*ChunkRows)
				last := min(bounds.RowEnd, chunkRow*ChunkRows+ChunkRows-1)
				base := uint32((col % ChunkCols) * ChunkRows)
				for row := first; row <= last; {
					idx := base + uint32(row%ChunkRows)
					word := c.occupied[idx/64] >> (idx % 64)
					if word == 0 {
						row += 64 - int(idx%64)
						continue
					}
					row += bits.TrailingZeros64(word)
					if row > last {
						break
					}
					idx = base + uint32(row%ChunkRows)
					if !yield(CellCoords{ColIndex: col, RowIndex: row}, w.read(c, idx)) {
						return
					}
					row++
				}
			}
		}
	}
}

// rowChunks lists the chunk rows that hold data and overlap bounds
func (w *Worksheet) rowChunks(bounds Coords) []int {
	seen := make(map[int]struct{})
	for key := range w.chunks {
		if key.row >= bounds.RowStart/ChunkRows && key.row <= bounds.RowEnd/ChunkRows {
			seen[key.row] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for row := range seen {
		out = append(out, row)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of non-empty cells
func (w *Worksheet) Len() int {
	return w.totalCells
}

// CountByType returns the number of cells holding a type
func (w *Worksheet) CountByType(t CellType) uint32 {
	if int(t) < len(w.cellsByType) {
		return w.cellsByType[t]
	}
	return 0
}

// Workbook is the set of worksheets and defined names reference ranges are
// read from. sheet names are case-insensitive.
type Workbook struct {
	sheets  map[string]*Worksheet
	order   []string
	strings *StringTable
	names   *NameTable
}

// NewWorkbook creates an empty workbook
func NewWorkbook() *Workbook {
	return &Workbook{
		sheets:  make(map[string]*Worksheet),
		strings: NewStringTable(),
		names:   NewNameTable(),
	}
}

// AddSheet creates a worksheet. the name must be unique.
func (wb *Workbook) AddSheet(name string) (*Worksheet, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "[]:*?/\\") {
		return nil, NewApplicationError(InvalidArgument, "invalid worksheet name: "+name)
	}
	key := strings.ToUpper(name)
	if _, ok := wb.sheets[key]; ok {
		return nil, NewApplicationError(AlreadyExists, "worksheet already exists: "+name)
	}
	ws := NewWorksheet(name, wb.strings)
	wb.sheets[key] = ws
	wb.order = append(wb.order, key)
	return ws, nil
}

// Sheet looks a worksheet up by name
func (wb *Workbook) Sheet(name string) (*Worksheet, bool) {
	ws, ok := wb.sheets[strings.ToUpper(name)]
	return ws, ok
}

// RemoveSheet deletes a worksheet, reporting whether it existed
func (wb *Workbook) RemoveSheet(name string) bool {
	key := strings.ToUpper(name)
	if _, ok := wb.sheets[key]; !ok {
		return false
	}
	delete(wb.sheets, key)
	wb.order = slices.DeleteFunc(wb.order, func(k string) bool { return k == key })
	return true
}

// SheetNames returns the sheet names in creation order
func (wb *Workbook) SheetNames() []string {
	out := make([]string, 0, len(wb.order))
	for _, key := range wb.order {
		out = append(out, wb.sheets[key].name)
	}
	return out
}

// Names returns the defined-name table
func (wb *Workbook) Names() *NameTable {
	return wb.names
}

// Strings returns the shared string table
func (wb *Workbook) Strings() *StringTable {
	return wb.strings
}

// Range snapshots a rectangle of a sheet as a reference range. unknown
// sheets and rectangles outside the sheet fail with #REF!.
func (wb *Workbook) Range(sheet string, coords Coords) (*Range, error) {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return nil, newFormulaErrorf(ErrorCodeRef, "unknown worksheet %q", sheet)
	}
	if coords.Validate() != nil || coords.ColEnd >= MaxCols || coords.RowEnd >= MaxRows {
		return nil, newFormulaErrorf(ErrorCodeRef, "invalid reference %v", coords)
	}
	r := newRange(coords.Width(), coords.Height(), false)
	r.sheet = ws.name
	r.origin = CellCoords{ColIndex: coords.ColStart, RowIndex: coords.RowStart}
	entries := make([]entry, 0)
	for c, v := range ws.Populated(coords) {
		entries = append(entries, entry{
			idx: r.index(c.RowIndex-coords.RowStart, c.ColIndex-coords.ColStart),
			v:   v,
		})
	}
	// Populated walks column-major, entries are already sorted
	r.entries = entries
	return r, nil
}
