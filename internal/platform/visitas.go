package platform

import (
	"context"
	"net/http"
	"strings"
)

// VisitClient is the customer summary embedded in a visit result.
type VisitClient struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	CPF   string  `json:"cpf"`
	Phone string  `json:"phone"`
	Email *string `json:"email"`
}

// VisitResult is returned after a visit is registered.
type VisitResult struct {
	VisitID          int         `json:"visit_id"`
	Client           VisitClient `json:"client"`
	VisitsCount      int         `json:"visits_count"`
	Meta             int         `json:"meta"`
	Eligible         bool        `json:"eligible"`
	StoreID          *int        `json:"store_id"`
	WhatsAppURL      *string     `json:"whatsapp_url"`
	WhatsAppImageURL *string     `json:"whatsapp_image_url"`
}

// Remaining is how many visits are still missing for the gift.
func (v *VisitResult) Remaining() int {
	if r := v.Meta - v.VisitsCount; r > 0 {
		return r
	}
	return 0
}

type visitRequest struct {
	CPF string `json:"cpf"`
}

// RegisterVisit records a visit for the customer with the given CPF.
func (c *Client) RegisterVisit(ctx context.Context, cpf string) (*VisitResult, error) {
	var out VisitResult
	if err := c.send(ctx, http.MethodPost, "/api/visitas", visitRequest{CPF: strings.TrimSpace(cpf)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
