package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MaxQueryLen bounds the search text accepted from clients.
const MaxQueryLen = 512

// SearchParams are the parsed query-string parameters of GET /search.
type SearchParams struct {
	Query    *string
	Page     int
	PageSize int // 0 when absent
}

// SearchQuery parses query, page and page_size. Range checks beyond
// "positive integer" belong to the search engine.
func SearchQuery(values url.Values) (SearchParams, error) {
	p := SearchParams{Page: 1}

	if _, ok := values["query"]; ok {
		q := values.Get("query")
		if len(q) > MaxQueryLen {
			return p, fmt.Errorf("query exceeds %d characters", MaxQueryLen)
		}
		p.Query = &q
	}

	page, err := PositiveInt(values, "page")
	if err != nil {
		return p, err
	}
	if page != 0 {
		p.Page = page
	}

	if p.PageSize, err = PositiveInt(values, "page_size"); err != nil {
		return p, err
	}
	return p, nil
}

// PositiveInt reads an optional integer parameter that must be >= 1 when
// present. It returns 0 when the parameter is absent or blank.
func PositiveInt(values url.Values, field string) (int, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be >= 1", field)
	}
	return n, nil
}
