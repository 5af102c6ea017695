package store

import "printq/internal/request"

// Page is a fixed-size window over a collection snapshot. Page state belongs
// to the caller's session; the store itself knows nothing about pages.
type Page struct {
	Requests []*request.Request
	Index    int
	Size     int
	Total    int
	HasPrev  bool
	HasNext  bool
}

// PageOf slices a snapshot into the zero-based page of the given size. An
// index past the last page yields an empty page with HasNext false.
func PageOf(requests []*request.Request, size, index int) Page {
	if size <= 0 {
		size = 1
	}
	if index < 0 {
		index = 0
	}

	total := len(requests)
	start := index * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Requests: requests[start:end],
		Index:    index,
		Size:     size,
		Total:    total,
		HasPrev:  index > 0,
		HasNext:  end < total,
	}
}

// PageCount returns how many pages a collection of the given length spans.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
