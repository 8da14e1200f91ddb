package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/general/jwt"
	"driverhub/internal/general/logger"
)

func TestGatewayUpdateBookingStatus(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)

	var gotPath, gotAuth string
	var gotBody statusUpdateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := NewGateway(logger.New("test"), srv.URL, tokens)
	err := gw.UpdateBookingStatus(context.Background(), "b1", booking.StatusAccepted, "driver-1")
	require.NoError(t, err)

	assert.Equal(t, "/bookings/b1/status", gotPath)
	assert.Equal(t, "accepted", gotBody.Status)
	assert.Equal(t, "driver-1", gotBody.DriverID)

	// the bearer token must be a valid driver token for the caller
	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	claims, err := tokens.ParseAndValidate(strings.TrimPrefix(gotAuth, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, "driver-1", claims.DriverID())
}

func TestGatewayMapsErrorStatuses(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)

	tests := []struct {
		name    string
		code    int
		wantErr error
	}{
		{name: "not found", code: http.StatusNotFound, wantErr: directory.ErrUnknownBooking},
		{name: "conflict", code: http.StatusConflict, wantErr: directory.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			gw := NewGateway(logger.New("test"), srv.URL, tokens)
			err := gw.UpdateBookingStatus(context.Background(), "b1", booking.StatusAccepted, "driver-1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGatewaySurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewGateway(logger.New("test"), srv.URL, jwt.NewManager("s", time.Hour))
	err := gw.UpdateBookingStatus(context.Background(), "b1", booking.StatusArrived, "driver-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 500")
	assert.Contains(t, err.Error(), "boom")
}
