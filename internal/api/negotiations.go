package api

import (
	"context"
	"fmt"
	"net/http"
)

func negotiationPath(id int64, suffix string) string {
	return fmt.Sprintf("/negotiations/%d%s", id, suffix)
}

// ListNegotiations returns every negotiation. Admin only.
func (c *Client) ListNegotiations(ctx context.Context, token string) ([]Negotiation, error) {
	out, err := get[[]Negotiation](ctx, c, "/negotiations/", token, "Failed to load negotiations")
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// MyNegotiations returns the negotiations visible to the caller.
func (c *Client) MyNegotiations(ctx context.Context, token string) ([]Negotiation, error) {
	out, err := get[[]Negotiation](ctx, c, "/negotiations/my", token, "Failed to load negotiations")
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// NegotiationDetail returns one negotiation with its rounds.
func (c *Client) NegotiationDetail(ctx context.Context, token string, id int64) (*Negotiation, error) {
	return get[Negotiation](ctx, c, negotiationPath(id, ""), token, "Failed to load negotiation")
}

// CreateNegotiation opens a negotiation between a collective and a supplier.
func (c *Client) CreateNegotiation(ctx context.Context, token string, in CreateNegotiationRequest) (*Negotiation, error) {
	var out Negotiation
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/negotiations/start",
		token:    token,
		body:     in,
		out:      &out,
		fallback: "Failed to create negotiation",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitSupplierOffer records a supplier offer. Suppliers never accept
// directly, so Accept is always sent as false.
func (c *Client) SubmitSupplierOffer(ctx context.Context, token string, id int64, in OfferInput) (*OfferResponse, error) {
	in.Accept = false
	return c.postOffer(ctx, token, negotiationPath(id, "/supplier-offer"), in, "Failed to submit offer")
}

// SubmitCollectiveCounter records a counter-offer from the collective side.
func (c *Client) SubmitCollectiveCounter(ctx context.Context, token string, id int64, in OfferInput) (*OfferResponse, error) {
	return c.postOffer(ctx, token, negotiationPath(id, "/collective-counter"), in, "Failed to submit counter-offer")
}

func (c *Client) postOffer(ctx context.Context, token, path string, in OfferInput, fallback string) (*OfferResponse, error) {
	var out OfferResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     path,
		token:    token,
		body:     in,
		out:      &out,
		fallback: fallback,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptLatestOffer closes the negotiation on its most recent round.
func (c *Client) AcceptLatestOffer(ctx context.Context, token string, id int64) (*Negotiation, error) {
	var out Negotiation
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     negotiationPath(id, "/accept"),
		token:    token,
		out:      &out,
		fallback: "Failed to accept offer",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
