package platform

import (
	"context"
	"net/http"
)

// DefaultExportFilename is used when the export response names no file.
const DefaultExportFilename = "aniversariantes.xlsx"

// KPIs are the dashboard counters for the last 30 days.
type KPIs struct {
	Visitas30d    int `json:"visitas_30d"`
	ClientesTotal int `json:"clientes_total"`
	Resgates30d   int `json:"resgates_30d"`
}

// BirthdayCustomer is a customer with a birthday this month.
type BirthdayCustomer struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	CPF      string  `json:"cpf"`
	Birthday *string `json:"birthday"`
}

// Download is a binary file served by the API.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// KPIs returns the dashboard counters.
func (c *Client) KPIs(ctx context.Context) (*KPIs, error) {
	var k KPIs
	if err := c.get(ctx, "/api/dashboard/kpis", nil, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// Birthdays lists customers whose birthday falls in the current month.
func (c *Client) Birthdays(ctx context.Context) ([]BirthdayCustomer, error) {
	var out []BirthdayCustomer
	if err := c.get(ctx, "/api/dashboard/aniversariantes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportBirthdays downloads the birthday spreadsheet.
func (c *Client) ExportBirthdays(ctx context.Context) (*Download, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/dashboard/aniversariantes_export", nil, WithResponseType(Binary))
	if err != nil {
		return nil, err
	}
	return &Download{
		Filename:    resp.Filename(DefaultExportFilename),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        resp.Body,
	}, nil
}
