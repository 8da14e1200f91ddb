package cli

import (
	"fmt"
	"time"

	"driverhub/internal/general/jwt"
)

// GenerateDriverToken mints a short-lived JWT for a driver.
// It uses jwt.Manager and returns the raw token plus the claims.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateDriverToken(secret,
//	    "550e8400-e29b-41d4-a716-446655440001")
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateDriverToken(secret string, driverID string) (string, jwt.Claims, error) {
	mgr := jwt.NewManager(secret, 2*time.Hour)

	token, claims, err := mgr.IssueDriverToken(driverID)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
