package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// KeycloakOptions configures the Keycloak verifier.
type KeycloakOptions struct {
	BaseURL      string // e.g. "http://keycloak:8080"
	Realm        string
	ClientID     string
	ClientSecret string // empty for public clients
	Username     string
	Password     string
	Timeout      time.Duration
	Poller       Poller
	Logger       *slog.Logger
}

// Keycloak verifies the identity provider: poll the realm metadata, obtain
// a token via the password grant, decode its claims, then assert the
// userinfo endpoint reports the same subject.
func Keycloak(ctx context.Context, opts KeycloakOptions) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)

	realmPath := "/realms/" + opts.Realm

	err := opts.Poller.Await(ctx, "keycloak", func(ctx context.Context) (bool, string) {
		resp, err := client.R().SetContext(ctx).Get(realmPath)
		if err != nil {
			return false, err.Error()
		}
		if resp.StatusCode() != http.StatusOK {
			return false, fmt.Sprintf("realm endpoint status %d", resp.StatusCode())
		}
		return true, "realm available"
	})
	if err != nil {
		return err
	}

	// Password grant.
	form := map[string]string{
		"grant_type": "password",
		"client_id":  opts.ClientID,
		"username":   opts.Username,
		"password":   opts.Password,
	}
	if opts.ClientSecret != "" {
		form["client_secret"] = opts.ClientSecret
	}

	resp, err := client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(realmPath + "/protocol/openid-connect/token")
	if err != nil {
		return Connectivityf("requesting token: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Connectivityf("token endpoint status %d: %s", resp.StatusCode(), resp.String())
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return Parsef("parsing token response: %v (body: %s)", err, resp.String())
	}
	if token.AccessToken == "" {
		return Parsef("token response carries no access_token: %s", resp.String())
	}

	// Decode the claims without verifying the signature; only the subject
	// is needed and the userinfo round-trip below proves the token works.
	claimedSub, err := unverifiedSubject(token.AccessToken)
	if err != nil {
		return Parsef("decoding access token: %v", err)
	}
	opts.Logger.Info("token obtained", slog.String("subject", claimedSub))

	// Userinfo round-trip.
	uiResp, err := client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		Get(realmPath + "/protocol/openid-connect/userinfo")
	if err != nil {
		return Connectivityf("requesting userinfo: %v", err)
	}
	if uiResp.StatusCode() != http.StatusOK {
		return Connectivityf("userinfo status %d: %s", uiResp.StatusCode(), uiResp.String())
	}

	var userinfo struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(uiResp.Body(), &userinfo); err != nil {
		return Parsef("parsing userinfo: %v (body: %s)", err, uiResp.String())
	}

	if userinfo.Sub != claimedSub {
		return Mismatch(claimedSub, userinfo.Sub)
	}

	opts.Logger.Info("keycloak round-trip verified", slog.String("subject", userinfo.Sub))
	return nil
}

// unverifiedSubject extracts the sub claim from a JWT without verifying
// the signature.
func unverifiedSubject(tokenStr string) (string, error) {
	claims := jwtlib.MapClaims{}
	parser := jwtlib.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return "", err
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("token has no sub claim")
	}
	return sub, nil
}
