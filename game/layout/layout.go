// Package layout maps board squares to positions on a serpentine grid.
//
// Square 1 sits in the bottom-left cell. Rows alternate direction, so the
// second row from the bottom runs right to left, the third left to right, and
// so on. Square 0 is the start corner off the board.
package layout

import (
	"image"
)

// MinCellSize is the smallest cell edge SquareToPoint will use
const MinCellSize = 20

// Rows returns how many grid rows a board needs
func Rows(finalSquare, columns int) int {
	if finalSquare <= 0 || columns <= 0 {
		return 0
	}
	return (finalSquare + columns - 1) / columns
}

// Cell returns the zero-based row (top row is 0) and column of a square.
// Squares at or before the start report ok=false.
func Cell(square, finalSquare, columns int) (row, col int, ok bool) {
	rows := Rows(finalSquare, columns)
	if square <= 0 || rows == 0 || square > finalSquare {
		return 0, 0, false
	}

	idx := square - 1
	row = rows - 1 - idx/columns
	col = idx % columns
	if (rows-row)%2 == 0 {
		col = columns - 1 - col
	}
	return row, col, true
}

// SquareToPoint returns the centre of a square's cell inside area. Square 0
// maps to the bottom-left start corner.
func SquareToPoint(square, finalSquare, columns int, area image.Rectangle) image.Point {
	if square <= 0 {
		return image.Pt(area.Min.X+MinCellSize, area.Max.Y-MinCellSize)
	}

	rows := Rows(finalSquare, columns)
	if rows == 0 {
		return area.Min
	}
	if square > finalSquare {
		square = finalSquare
	}

	cellW := max(MinCellSize, area.Dx()/columns)
	cellH := max(MinCellSize, area.Dy()/rows)

	row, col, _ := Cell(square, finalSquare, columns)
	return image.Pt(
		area.Min.X+col*cellW+cellW/2,
		area.Min.Y+row*cellH+cellH/2,
	)
}

// Grid returns the square numbers laid out row by row from the top, as they
// appear on the board. Cells past the final square hold 0.
func Grid(finalSquare, columns int) [][]int {
	rows := Rows(finalSquare, columns)
	grid := make([][]int, rows)
	for r := range grid {
		grid[r] = make([]int, columns)
	}
	for square := 1; square <= finalSquare; square++ {
		row, col, _ := Cell(square, finalSquare, columns)
		grid[row][col] = square
	}
	return grid
}
