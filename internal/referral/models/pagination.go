package models

import (
	"math"
	"strconv"
	"strings"

	dErrors "refeera/pkg/domain-errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a validated page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of records skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads the page and limit query values. Empty values take the
// defaults; non-numeric values or anything outside page >= 1 and
// 1 <= limit <= 100 is rejected, as is a page whose offset overflows int.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	var err error
	if rawPage = strings.TrimSpace(rawPage); rawPage != "" {
		if p.Page, err = strconv.Atoi(rawPage); err != nil {
			return Page{}, errInvalidPagination()
		}
	}
	if rawLimit = strings.TrimSpace(rawLimit); rawLimit != "" {
		if p.Limit, err = strconv.Atoi(rawLimit); err != nil {
			return Page{}, errInvalidPagination()
		}
	}
	if p.Page < 1 || p.Limit < 1 || p.Limit > MaxLimit || p.Page > math.MaxInt/p.Limit {
		return Page{}, errInvalidPagination()
	}
	return p, nil
}

func errInvalidPagination() error {
	return dErrors.New(dErrors.CodeInvalidPagination, "Invalid pagination parameters")
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int64 `json:"pages"`
	Limit int   `json:"limit"`
}

// NewPagination reports total against p; Pages is ceil(total / limit).
func NewPagination(total int64, p Page) Pagination {
	limit := int64(p.Limit)
	return Pagination{
		Total: total,
		Page:  p.Page,
		Pages: (total + limit - 1) / limit,
		Limit: p.Limit,
	}
}

// ListQuery carries the raw listing parameters as received.
type ListQuery struct {
	PartnerID           string
	OfferID             string
	Email               string
	IsPartialSubmission string
	Page                string
	Limit               string
}

// SubmissionList is one page of a partner's submissions.
type SubmissionList struct {
	Success     bool             `json:"success"`
	Submissions []SubmissionView `json:"submissions"`
	Pagination  Pagination       `json:"pagination"`
}
