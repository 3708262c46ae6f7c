package app

import "github.com/casadocigano/fidelidade/internal/platform"

// DefaultPerPage is the customer list page size.
const DefaultPerPage = 10

// Pager holds the customer list's search and pagination state.
type Pager struct {
	CPF     string
	Page    int
	PerPage int
	Total   int
}

// NewPager starts on page 1 with perPage rows, or DefaultPerPage when perPage is not positive.
func NewPager(perPage int) *Pager {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Pager{Page: 1, PerPage: perPage}
}

// Search sets the CPF filter and goes back to page 1.
func (p *Pager) Search(cpf string) {
	p.CPF = cpf
	p.Page = 1
}

// Next advances one page. It does not move past the last page of Total.
func (p *Pager) Next() bool {
	if p.Page >= p.TotalPages() {
		return false
	}
	p.Page++
	return true
}

// Prev goes back one page, never below 1.
func (p *Pager) Prev() bool {
	if p.Page <= 1 {
		p.Page = 1
		return false
	}
	p.Page--
	return true
}

// TotalPages is the number of pages for Total rows, at least 1.
func (p *Pager) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Update records the total reported by the last page fetched.
func (p *Pager) Update(page *platform.CustomerPage) {
	if page != nil {
		p.Total = page.Total
	}
}

// Query builds the request for the current state.
func (p *Pager) Query() platform.CustomerQuery {
	return platform.CustomerQuery{CPF: p.CPF, Page: p.Page, PerPage: p.PerPage}
}
