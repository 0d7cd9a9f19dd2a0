package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/rebuildhq/storeconnect/internal/cache"
)

const (
	// assertionTTL es la vida del JWT de assertion.
	assertionTTL = time.Hour
	// tokenSafety: renovar el access token un rato antes de que venza.
	tokenSafety = 60 * time.Second

	accessTokenCacheKey = "fcm:access_token"
)

// tokenSource obtiene access tokens OAuth2 vía el flujo jwt-bearer de la
// service account. Cachea el token y deduplica refrescos concurrentes.
type tokenSource struct {
	cfg      FCMConfig
	httpc    *http.Client
	cache    cache.Cache
	group    singleflight.Group
	tokenURL string // override para tests; "" usa el token_uri de la SA

	now func() time.Time
}

func newTokenSource(cfg FCMConfig, httpc *http.Client, c cache.Cache) *tokenSource {
	return &tokenSource{cfg: cfg, httpc: httpc, cache: c, now: time.Now}
}

// AccessToken devuelve un token vigente, del cache o recién intercambiado.
func (t *tokenSource) AccessToken(ctx context.Context) (string, error) {
	if b, ok := t.cache.Get(accessTokenCacheKey); ok {
		return string(b), nil
	}

	// Un solo fetch aunque lleguen N requests a la vez
	v, err, _ := t.group.Do(accessTokenCacheKey, func() (any, error) {
		if b, ok := t.cache.Get(accessTokenCacheKey); ok {
			return string(b), nil
		}
		return t.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetch arma la assertion RS256 y la intercambia por un access token.
func (t *tokenSource) fetch(ctx context.Context) (string, error) {
	sa, err := parseServiceAccount(t.cfg.FCMServiceAccount())
	if err != nil {
		return "", err
	}

	tokenURL := t.tokenURL
	if tokenURL == "" {
		tokenURL = sa.TokenURI
	}

	now := t.now().UTC()
	assertion := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
		"iss":   sa.ClientEmail,
		"scope": fcmScope,
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	})
	signed, err := assertion.SignedString(sa.key)
	if err != nil {
		return "", fmt.Errorf("notify: sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {signed},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify: token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("notify: token exchange status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		return "", fmt.Errorf("notify: token exchange: respuesta inválida")
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenSafety
	if ttl > 0 {
		t.cache.Set(accessTokenCacheKey, []byte(out.AccessToken), ttl)
	}
	return out.AccessToken, nil
}
