package calc

import (
	"context"
	"fmt"
	"testing"
)

func benchWorkbook(b *testing.B, rows, cols int) *Workbook {
	b.Helper()
	wb := NewWorkbook()
	sheet, err := wb.AddSheet("Sheet1")
	if err != nil {
		b.Fatal(err)
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if err := sheet.SetCell(row, col, float64(row*col)); err != nil {
				b.Fatal(err)
			}
		}
	}
	return wb
}

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchWorkbook(b, 100, 26)
	}
}

func BenchmarkStringCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := NewWorkbook()
		sheet, _ := wb.AddSheet("Sheet1")
		for row := 0; row < 1000; row++ {
			_ = sheet.SetCell(row, 0, fmt.Sprintf("item-%d", row%50))
		}
	}
}

func BenchmarkSparseSheetRange(b *testing.B) {
	wb := NewWorkbook()
	sheet, _ := wb.AddSheet("Sheet1")
	for i := 0; i < 1000; i++ {
		_ = sheet.SetCell(i*97, i%300, float64(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := wb.Range("Sheet1", Rect(0, 0, 299, 99999))
		if err != nil {
			b.Fatal(err)
		}
		for range r.Values() {
		}
	}
}

func BenchmarkLargeRangeSUM(b *testing.B) {
	wb := benchWorkbook(b, 1000, 1)
	sheet, _ := wb.Sheet("Sheet1")
	for row := 0; row < 1000; row++ {
		_ = sheet.SetCell(row, 0, float64(row+1))
	}
	rt, err := NewRuntime(context.Background(), nil)
	if err != nil {
		b.Fatal(err)
	}
	ev := rt.NewEvaluation(context.Background(), wb, "Sheet1", CellCoords{ColIndex: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := ev.ResolveReference("A1:A1000")
		if err != nil {
			b.Fatal(err)
		}
		if _, err := ev.Call("SUM", RangeParam(r)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBroadcastRowByColumn(b *testing.B) {
	row := make([]Scalar, 200)
	col := make([]Scalar, 200)
	for i := range row {
		row[i] = float64(i)
		col[i] = float64(i * 2)
	}
	left, _ := NewRow(row)
	right, _ := NewColumn(col)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := left.Broadcast(right, add); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUpdaterRowMajor(b *testing.B) {
	values := make([]Scalar, 100)
	for i := range values {
		values[i] = float64(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u := NewEmptyRange(100, 100).StartIncrementalUpdates(context.Background(), UpdaterOptions{})
		for row := 0; row < 100; row++ {
			if err := u.PushMultipleAt(row, 0, values); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := u.Apply(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFlattenParams(b *testing.B) {
	wb := benchWorkbook(b, 100, 26)
	r, err := wb.Range("Sheet1", Rect(0, 0, 25, 99))
	if err != nil {
		b.Fatal(err)
	}
	params := []Param{RangeParam(r), LiteralParam(1.0), ArrayParam(MustNewRange([][]Scalar{{1.0, "2"}}))}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var total float64
		err := FlattenParams(params, FlattenOptions{Type: ScalarTypeNumber}, func(v Scalar, _ Item) error {
			if n, ok := v.(float64); ok {
				total += n
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
		_ = total
	}
}
