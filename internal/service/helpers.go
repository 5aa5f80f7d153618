package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginationFor mirrors the window the repositories apply.
func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
