package platform

import (
	"context"
	"net/http"
	"strings"
)

// DefaultGiftName is used when no gift name is given.
const DefaultGiftName = "Brinde"

// Redemption is a redeemed gift.
type Redemption struct {
	RedemptionID int    `json:"redemption_id"`
	GiftName     string `json:"gift_name"`
	When         string `json:"when"`
	StoreID      *int   `json:"store_id"`
}

type redeemRequest struct {
	CPF      string `json:"cpf"`
	GiftName string `json:"gift_name"`
}

// Redeem redeems a gift for the customer. The backend rejects the call
// with 400 while the visit goal has not been reached.
func (c *Client) Redeem(ctx context.Context, cpf, giftName string) (*Redemption, error) {
	giftName = strings.TrimSpace(giftName)
	if giftName == "" {
		giftName = DefaultGiftName
	}

	var out Redemption
	body := redeemRequest{CPF: strings.TrimSpace(cpf), GiftName: giftName}
	if err := c.send(ctx, http.MethodPost, "/api/resgates", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
