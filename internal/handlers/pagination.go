package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var errInvalidPagination = errors.New("invalid pagination params")

type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

// pageFrom reads ?page= and ?limit=. Missing values fall back to page 1 of 20.
func pageFrom(c *gin.Context) (pageRequest, error) {
	return parsePage(c.Query("page"), c.Query("limit"))
}

// hasPage reports whether the caller asked for a page at all.
func hasPage(c *gin.Context) bool {
	return c.Query("page") != "" && c.Query("limit") != ""
}

func parsePage(pageStr, limitStr string) (pageRequest, error) {
	p := pageRequest{Page: 1, Limit: defaultPageLimit}

	if pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 1 {
			return pageRequest{}, errInvalidPagination
		}
		p.Page = n
	}
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > maxPageLimit {
			return pageRequest{}, errInvalidPagination
		}
		p.Limit = n
	}
	return p, nil
}
