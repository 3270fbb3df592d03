package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ride-hail-realtime/internal/domain/account"
	"ride-hail-realtime/internal/domain/chat"
	"ride-hail-realtime/internal/domain/ride"
	"ride-hail-realtime/internal/ports"
)

var (
	_ ports.CredentialAPI = (*Client)(nil)
	_ ports.RideAPI       = (*Client)(nil)
	_ ports.CatalogAPI    = (*Client)(nil)
)

// ConnectionToken fetches a short-lived realtime credential.
func (c *Client) ConnectionToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.getJSON(ctx, "/v1/realtime/token", nil, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// ActiveRide returns nil when the user has no ride (204 or 404).
func (c *Client) ActiveRide(ctx context.Context) (*ride.ActiveRide, error) {
	var out ride.ActiveRide
	found, err := c.getJSON(ctx, "/v1/rides/active", nil, &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RideNavigation(ctx context.Context, rideID string) (*ride.Navigation, error) {
	var out ride.Navigation
	if _, err := c.getJSON(ctx, "/v1/rides/"+url.PathEscape(rideID)+"/navigation", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatMessages lists chat lines of a ride, newest first.
func (c *Client) ChatMessages(ctx context.Context, rideID string, q ports.ChatQuery) ([]chat.Message, error) {
	query := url.Values{}
	if !q.Since.IsZero() {
		query.Set("since", q.Since.UTC().Format(time.RFC3339Nano))
	}
	if !q.Before.IsZero() {
		query.Set("before", q.Before.UTC().Format(time.RFC3339Nano))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var out chat.Page
	if _, err := c.getJSON(ctx, "/v1/rides/"+url.PathEscape(rideID)+"/chat", query, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) RideTypes(ctx context.Context) ([]ride.RideTypeOption, error) {
	var out []ride.RideTypeOption
	_, err := c.getJSON(ctx, "/v1/ride-types", nil, &out)
	return out, err
}

func (c *Client) PaymentMethods(ctx context.Context) ([]account.PaymentMethod, error) {
	var out []account.PaymentMethod
	_, err := c.getJSON(ctx, "/v1/payment-methods", nil, &out)
	return out, err
}

func (c *Client) Plans(ctx context.Context) ([]account.Plan, error) {
	var out []account.Plan
	_, err := c.getJSON(ctx, "/v1/plans", nil, &out)
	return out, err
}
