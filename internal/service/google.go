package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	ErrGoogleTokenRejected = errors.New("google rejected the ID token")
	ErrGoogleProvider      = errors.New("google token verification unavailable")
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleVerifier turns a Google ID token from the sign-in button into a
// verified identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*model.GoogleIdentity, error)
}

// TokenInfoVerifier checks ID tokens against Google's tokeninfo endpoint and
// requires them to be issued for clientID.
type TokenInfoVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

func NewTokenInfoVerifier(clientID string) *TokenInfoVerifier {
	return &TokenInfoVerifier{
		clientID: clientID,
		endpoint: googleTokenInfoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

type tokenInfo struct {
	Issuer        string `json:"iss"`
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Expiry        string `json:"exp"`
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (*model.GoogleIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+url.Values{"id_token": {idToken}}.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrGoogleTokenRejected
	case resp.StatusCode != http.StatusOK:
		log.Error().Int("status", resp.StatusCode).Msg("Google tokeninfo failed")
		return nil, ErrGoogleProvider
	}

	var info tokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleProvider, err)
	}

	if info.Audience != v.clientID {
		return nil, fmt.Errorf("%w: audience %q", ErrGoogleTokenRejected, info.Audience)
	}
	if !googleIssuers[info.Issuer] {
		return nil, fmt.Errorf("%w: issuer %q", ErrGoogleTokenRejected, info.Issuer)
	}
	exp, err := strconv.ParseInt(info.Expiry, 10, 64)
	if err != nil || !v.now().Before(time.Unix(exp, 0)) {
		return nil, fmt.Errorf("%w: expired", ErrGoogleTokenRejected)
	}
	if info.EmailVerified != "true" {
		return nil, fmt.Errorf("%w: email not verified", ErrGoogleTokenRejected)
	}

	name := info.Name
	if name == "" {
		name = info.GivenName
	}
	return &model.GoogleIdentity{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    name,
	}, nil
}
