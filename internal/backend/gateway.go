// Package backend holds the clients for the booking platform: the HTTP write
// path for status changes, the AMQP snapshot feed and location fanout, and the
// WebSocket push stream for driver state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/general/jwt"
	"driverhub/internal/general/logger"
)

const requestTimeout = 10 * time.Second

// Gateway is the HTTP client for booking status writes.
type Gateway struct {
	log     *logger.Logger
	baseURL string
	tokens  *jwt.Manager
	http    *http.Client
}

// NewGateway creates a gateway against baseURL, e.g. "http://localhost:3001".
func NewGateway(log *logger.Logger, baseURL string, tokens *jwt.Manager) *Gateway {
	return &Gateway{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type statusUpdateRequest struct {
	Status   string `json:"status"`
	DriverID string `json:"driver_id"`
}

// UpdateBookingStatus posts the new status for a booking. The call is the
// synchronization point for the trip lifecycle; callers treat any error as
// "the transition did not happen".
func (gw *Gateway) UpdateBookingStatus(ctx context.Context, bookingID string, status booking.Status, driverID string) error {
	token, _, err := gw.tokens.IssueDriverToken(driverID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	body, err := json.Marshal(statusUpdateRequest{Status: status.String(), DriverID: driverID})
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	url := fmt.Sprintf("%s/bookings/%s/status", gw.baseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := gw.http.Do(req)
	if err != nil {
		return fmt.Errorf("status update request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		gw.log.Info(ctx, "booking_status_updated", "Backend accepted status change",
			map[string]any{"booking_id": bookingID, "status": status.String()})
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return directory.ErrUnknownBooking
	case resp.StatusCode == http.StatusConflict:
		return directory.ErrIllegalTransition
	default:
		// bounded read; error bodies are small
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status update rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
}

var _ directory.Gateway = (*Gateway)(nil)
