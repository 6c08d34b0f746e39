// Package grid maps linear memory indices to screen coordinates.
package grid

const (
	ScreenWidth  = 512
	ScreenHeight = 256

	// WordsPerRow is the number of 16-bit screen words per pixel row.
	WordsPerRow = ScreenWidth / 16
	ScreenWords = WordsPerRow * ScreenHeight
)

// GetGridCoords returns the column and row of a linear index in a grid with cols columns.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// PixelCoords returns the pixel addressed by bit of the screen word at
// offset word. Bit 0 is the leftmost pixel of the word.
func PixelCoords(word, bit int) (x, y int) {
	col, row := GetGridCoords(word, WordsPerRow)
	return col*16 + bit, row
}

// WordFor is the inverse of PixelCoords.
func WordFor(x, y int) (word, bit int) {
	return y*WordsPerRow + x/16, x % 16
}
