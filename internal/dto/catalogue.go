package dto

import "github.com/noah-isme/crs-api/internal/models"

// CourseQuery captures the catalogue listing filters.
type CourseQuery struct {
	Search    string `form:"search"`
	Available bool   `form:"available"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// Filter converts the query into a repository filter.
func (q CourseQuery) Filter() models.CourseFilter {
	return models.CourseFilter{Search: q.Search, AvailableOnly: q.Available, Page: q.Page, PageSize: q.PageSize}
}
