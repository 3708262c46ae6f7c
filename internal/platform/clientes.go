package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/casadocigano/fidelidade/internal/errors"
)

// DateLayout is the backend's date format for birthdays.
const DateLayout = "2006-01-02"

// Customer is a loyalty program member.
type Customer struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	CPF      string  `json:"cpf"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email"`
	Birthday *string `json:"birthday"`
	StoreID  *int    `json:"store_id"`
}

// CustomerPage is one page of a customer search.
type CustomerPage struct {
	Items []Customer `json:"items"`
	Total int        `json:"total"`
}

// CustomerQuery filters the customer list. An empty CPF lists everyone
// visible to the current user.
type CustomerQuery struct {
	CPF     string
	Page    int
	PerPage int
}

func (q CustomerQuery) values() url.Values {
	v := url.Values{}
	v.Set("cpf", strings.TrimSpace(q.CPF))
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// NewCustomer is the body of POST /api/clientes.
type NewCustomer struct {
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Birthday string `json:"birthday,omitempty"`
}

// Validate checks what the form requires before submitting.
func (n NewCustomer) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return errors.New(errors.ErrCodeInputRequired, "name is required")
	}
	if strings.TrimSpace(n.CPF) == "" {
		return errors.New(errors.ErrCodeInputRequired, "cpf is required")
	}
	if n.Birthday != "" {
		if _, err := time.Parse(DateLayout, n.Birthday); err != nil {
			return errors.Wrap(errors.ErrCodeInputInvalid, "birthday must be YYYY-MM-DD", err)
		}
	}
	return nil
}

type createdID struct {
	ID int `json:"id"`
}

// ListCustomers returns one page of customers.
func (c *Client) ListCustomers(ctx context.Context, q CustomerQuery) (*CustomerPage, error) {
	var page CustomerPage
	if err := c.get(ctx, "/api/clientes", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateCustomer registers a customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, in NewCustomer) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var out createdID
	if err := c.send(ctx, http.MethodPost, "/api/clientes", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}
