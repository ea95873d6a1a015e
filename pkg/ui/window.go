package ui

// VisibleWindow computes the half-open row range [start, end) that a
// viewport of viewportHeight cells over uniform rows of rowHeight cells
// shows when the first visible row is scrollOffset. The range is clamped
// to [0, total].
//
// Callers keep the full row set in memory and render only this window, so
// scrolling costs the window size rather than the set size.
func VisibleWindow(total, rowHeight, viewportHeight, scrollOffset int) (start, end int) {
	if total <= 0 || rowHeight <= 0 || viewportHeight <= 0 {
		return 0, 0
	}
	rows := (viewportHeight + rowHeight - 1) / rowHeight
	start = clamp(scrollOffset, 0, total-1)
	end = clamp(start+rows, 0, total)
	return start, end
}

// followWindow adjusts scrollOffset so the row at index stays inside the
// rendered window, scrolling by the minimum amount. rows is the number of
// fully visible rows.
func followWindow(index, rows, total, scrollOffset int) int {
	if total <= 0 || rows <= 0 {
		return 0
	}
	index = clamp(index, 0, total-1)
	if index < scrollOffset {
		scrollOffset = index
	}
	if index >= scrollOffset+rows {
		scrollOffset = index - rows + 1
	}
	return clamp(scrollOffset, 0, max(0, total-rows))
}
