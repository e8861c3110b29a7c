package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info. Lists are not counted;
// HasMore reports whether a further page exists.
type Pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// pageParams reads offset and limit from the query string, clamped.
func pageParams(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defaultPageLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return offset, limit
}

// page trims a result fetched with limit+1 rows to limit.
func page[T any](items []T, offset, limit int) ([]T, Pagination) {
	p := Pagination{Offset: offset, Limit: limit}
	if len(items) > limit {
		items = items[:limit]
		p.HasMore = true
	}
	if items == nil {
		items = []T{}
	}
	return items, p
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses. Query
// parameters other than offset and limit are carried over.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	var extra []string
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if key == "offset" || key == "limit" {
			return
		}
		extra = append(extra, url.QueryEscape(key)+"="+url.QueryEscape(string(v)))
	})
	suffix := ""
	if len(extra) > 0 {
		suffix = "&" + strings.Join(extra, "&")
	}

	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d%s>; rel="%s"`, base, offset, p.Limit, suffix, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, link(prev, "prev"))
	}
	if p.HasMore {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}

	c.Set("Link", strings.Join(links, ", "))
}
