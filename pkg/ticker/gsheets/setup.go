// Package gsheets keeps the portfolio grid in a Google Sheets spreadsheet
// and draws the dashboard charts there.
package gsheets

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const scope = "https://www.googleapis.com/auth/spreadsheets"

// NewService authenticates with a base64 encoded service account key.
func NewService(ctx context.Context, credentialsBase64 string) (*sheets.Service, error) {
	credBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentialsBase64))
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode credentials: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credBytes, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from json: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return srv, nil
}

// quote makes a sheet name safe to use as an A1 range; on its own it
// addresses the whole tab.
func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// a1 qualifies a range with a quoted sheet name.
func a1(sheet, r string) string {
	return quote(sheet) + "!" + r
}
