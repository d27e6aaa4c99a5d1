package common

import (
	"math"
	"net/http"
	"strconv"
)

// PageLimits bound the page size a client may ask for.
type PageLimits struct {
	MinPageSize int
	MaxPageSize int
}

// Page selects a window of a listing. A zero Size selects everything.
type Page struct {
	Size   int
	Number int
	Offset int
}

// All reports whether the page covers the whole collection.
func (p Page) All() bool {
	return p.Size <= 0
}

// NewPageFromRequest reads page and page_size query parameters. Paging is
// opt-in: without page_size the whole collection is selected.
func NewPageFromRequest(request *http.Request, limits PageLimits) Page {
	query := request.URL.Query()
	if !query.Has("page_size") && !query.Has("page") {
		return Page{}
	}
	size := getPageSize(request, limits)
	number := getPage(request)
	return Page{
		Size:   size,
		Number: number,
		Offset: pageOffset(number, size),
	}
}

// pageOffset saturates at math.MaxInt for pages too far out to address, so
// they select nothing instead of wrapping around.
func pageOffset(number, size int) int {
	if size <= 0 {
		return 0
	}
	if number-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (number - 1) * size
}

func getPageSize(request *http.Request, limits PageLimits) int {
	query := request.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size")) // Error is ignored because wrong or missing parameters are handled as 0
	switch {
	case pageSize > limits.MaxPageSize:
		pageSize = limits.MaxPageSize
	case pageSize < limits.MinPageSize:
		pageSize = limits.MinPageSize
	}
	return pageSize
}

func getPage(request *http.Request) int {
	query := request.URL.Query()
	page, _ := strconv.Atoi(query.Get("page")) // Error is ignored because wrong or missing parameters are handled as 0
	if page <= 0 {
		page = 1
	}
	return page
}
