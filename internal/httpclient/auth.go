package httpclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/pkg/logging"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// defaultRefreshWindow is how long before expiry a cached token is treated as
// stale.
const defaultRefreshWindow = 60 * time.Second

// injector attaches credentials to an outbound request according to the
// service's authentication config. body is the already-serialized request
// body (HMAC signs it).
type injector interface {
	inject(ctx context.Context, req *http.Request, body []byte) error
}

// refresher is implemented by injectors whose credentials can be refreshed
// after a 401 (bearer with a refresh URL, oauth2).
type refresher interface {
	forceRefresh(ctx context.Context) error
}

// newInjector builds the injector for an authentication config.
func newInjector(service string, auth catalog.AuthConfig, httpClient *http.Client) (injector, error) {
	window := defaultRefreshWindow
	if auth.RefreshWindowSeconds > 0 {
		window = time.Duration(auth.RefreshWindowSeconds) * time.Second
	}

	switch auth.Type {
	case catalog.AuthNone, "":
		return noneInjector{}, nil
	case catalog.AuthBearer:
		if auth.Token == "" {
			return nil, fmt.Errorf("bearer auth for %s has no token", service)
		}
		return &bearerInjector{
			service:    service,
			token:      auth.Token,
			refreshURL: auth.RefreshURL,
			window:     window,
			httpClient: httpClient,
		}, nil
	case catalog.AuthAPIKey:
		if auth.Key == "" {
			return nil, fmt.Errorf("apikey auth for %s has no key", service)
		}
		inj := apikeyInjector{key: auth.Key, header: auth.Header, queryParam: auth.QueryParam}
		if inj.header == "" && inj.queryParam == "" {
			inj.header = "X-API-Key"
		}
		return inj, nil
	case catalog.AuthBasic:
		if auth.Username == "" {
			return nil, fmt.Errorf("basic auth for %s has no username", service)
		}
		return basicInjector{username: auth.Username, password: auth.Password}, nil
	case catalog.AuthHMAC:
		if auth.Secret == "" {
			return nil, fmt.Errorf("hmac auth for %s has no secret", service)
		}
		inj := hmacInjector{
			secret:          []byte(auth.Secret),
			algorithm:       auth.Algorithm,
			signatureHeader: auth.SignatureHeader,
			timestampHeader: auth.TimestampHeader,
		}
		if inj.algorithm == "" {
			inj.algorithm = "sha256"
		}
		if inj.algorithm != "sha256" && inj.algorithm != "sha512" {
			return nil, fmt.Errorf("hmac auth for %s: unsupported digest %q", service, inj.algorithm)
		}
		if inj.signatureHeader == "" {
			inj.signatureHeader = "X-Signature"
		}
		if inj.timestampHeader == "" {
			inj.timestampHeader = "X-Timestamp"
		}
		return inj, nil
	case catalog.AuthOAuth2:
		if auth.TokenURL == "" || auth.ClientID == "" {
			return nil, fmt.Errorf("oauth2 auth for %s needs tokenUrl and clientId", service)
		}
		return &oauth2Injector{
			service: service,
			conf: &clientcredentials.Config{
				ClientID:     auth.ClientID,
				ClientSecret: auth.ClientSecret,
				TokenURL:     auth.TokenURL,
				Scopes:       auth.Scopes,
			},
			window:     window,
			httpClient: httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q for %s", auth.Type, service)
	}
}

// noneInjector leaves the request untouched so per-call Authorization headers
// pass through unchanged.
type noneInjector struct{}

func (noneInjector) inject(ctx context.Context, req *http.Request, body []byte) error {
	return nil
}

// bearerInjector sets Authorization: Bearer <token>. With a refresh URL
// configured, the token is re-fetched from the delegated identity service
// when stale; refreshes are single-flighted so concurrent callers share one
// in-flight refresh.
type bearerInjector struct {
	service    string
	refreshURL string
	window     time.Duration
	httpClient *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
	group  singleflight.Group
}

func (b *bearerInjector) inject(ctx context.Context, req *http.Request, body []byte) error {
	token, err := b.currentToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (b *bearerInjector) currentToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	token := b.token
	expiry := b.expiry
	b.mu.Unlock()

	if b.refreshURL == "" {
		return token, nil
	}

	if expiry.IsZero() {
		// Static token with no recorded expiry: peek at the JWT exp claim
		// without verifying the signature. Verification belongs to the
		// upstream; the client only needs staleness.
		expiry = peekJWTExpiry(token)
		if expiry.IsZero() {
			return token, nil
		}
		b.mu.Lock()
		b.expiry = expiry
		b.mu.Unlock()
	}

	if time.Until(expiry) > b.window {
		return token, nil
	}

	if err := b.forceRefresh(ctx); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token, nil
}

// forceRefresh fetches a fresh token from the refresh URL. The refresh itself
// runs detached from the caller's context so one cancelled waiter cannot
// cancel a refresh other callers are sharing.
func (b *bearerInjector) forceRefresh(ctx context.Context) error {
	if b.refreshURL == "" {
		return api.NewGatewayError(api.CodeAuthFailed, "bearer token for %s cannot be refreshed", b.service)
	}

	_, err, _ := b.group.Do("refresh", func() (interface{}, error) {
		b.mu.Lock()
		old := b.token
		b.mu.Unlock()

		refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(refreshCtx, http.MethodPost, b.refreshURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+old)

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, api.NewGatewayError(api.CodeAuthFailed, "token refresh for %s failed: %v", b.service, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, api.NewGatewayError(api.CodeAuthFailed, "token refresh for %s returned %d", b.service, resp.StatusCode).WithStatus(resp.StatusCode)
		}

		var payload struct {
			AccessToken string `json:"access_token"`
			Token       string `json:"token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, api.NewGatewayError(api.CodeAuthFailed, "token refresh for %s returned malformed body", b.service)
		}

		token := payload.AccessToken
		if token == "" {
			token = payload.Token
		}
		if token == "" {
			return nil, api.NewGatewayError(api.CodeAuthFailed, "token refresh for %s returned no token", b.service)
		}

		b.mu.Lock()
		b.token = token
		if payload.ExpiresIn > 0 {
			b.expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
		} else {
			b.expiry = peekJWTExpiry(token)
		}
		b.mu.Unlock()

		logging.Debug("HTTPClient", "Refreshed bearer token for %s", b.service)
		return nil, nil
	})
	return err
}

// peekJWTExpiry extracts the exp claim from a JWT without verifying it.
// Returns the zero time for opaque tokens.
func peekJWTExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// apikeyInjector attaches the key as a header or query parameter.
type apikeyInjector struct {
	key        string
	header     string
	queryParam string
}

func (a apikeyInjector) inject(ctx context.Context, req *http.Request, body []byte) error {
	if a.header != "" {
		req.Header.Set(a.header, a.key)
		return nil
	}
	q := req.URL.Query()
	q.Set(a.queryParam, a.key)
	req.URL.RawQuery = q.Encode()
	return nil
}

// basicInjector sets Authorization: Basic base64(user:pass).
type basicInjector struct {
	username string
	password string
}

func (b basicInjector) inject(ctx context.Context, req *http.Request, body []byte) error {
	cred := base64.StdEncoding.EncodeToString([]byte(b.username + ":" + b.password))
	req.Header.Set("Authorization", "Basic "+cred)
	return nil
}

// hmacInjector signs {method, path, body digest, timestamp} with the shared
// secret and attaches the hex signature plus the timestamp it covers.
type hmacInjector struct {
	secret          []byte
	algorithm       string
	signatureHeader string
	timestampHeader string
}

func (h hmacInjector) inject(ctx context.Context, req *http.Request, body []byte) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	var digest hash.Hash
	var bodySum string
	if h.algorithm == "sha512" {
		sum := sha512.Sum512(body)
		bodySum = hex.EncodeToString(sum[:])
		digest = hmac.New(sha512.New, h.secret)
	} else {
		sum := sha256.Sum256(body)
		bodySum = hex.EncodeToString(sum[:])
		digest = hmac.New(sha256.New, h.secret)
	}

	fmt.Fprintf(digest, "%s\n%s\n%s\n%s", req.Method, req.URL.Path, bodySum, ts)

	req.Header.Set(h.signatureHeader, hex.EncodeToString(digest.Sum(nil)))
	req.Header.Set(h.timestampHeader, ts)
	return nil
}

// oauth2Injector obtains tokens via the client-credentials grant and caches
// them. A stale token triggers exactly one refresh shared by all concurrent
// callers (singleflight); the refresh is detached from caller contexts.
type oauth2Injector struct {
	service    string
	conf       *clientcredentials.Config
	window     time.Duration
	httpClient *http.Client

	mu    sync.Mutex
	token *oauth2.Token
	group singleflight.Group
}

func (o *oauth2Injector) inject(ctx context.Context, req *http.Request, body []byte) error {
	o.mu.Lock()
	tok := o.token
	o.mu.Unlock()

	if tok == nil || !tok.Expiry.IsZero() && time.Until(tok.Expiry) <= o.window {
		if err := o.forceRefresh(ctx); err != nil {
			return err
		}
		o.mu.Lock()
		tok = o.token
		o.mu.Unlock()
	}

	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	return nil
}

func (o *oauth2Injector) forceRefresh(ctx context.Context) error {
	_, err, _ := o.group.Do("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		refreshCtx = context.WithValue(refreshCtx, oauth2.HTTPClient, o.httpClient)

		tok, err := o.conf.Token(refreshCtx)
		if err != nil {
			return nil, api.NewGatewayError(api.CodeAuthFailed, "oauth2 token fetch for %s failed: %v", o.service, err)
		}

		o.mu.Lock()
		o.token = tok
		o.mu.Unlock()

		logging.Debug("HTTPClient", "Fetched oauth2 token for %s", o.service)
		return nil, nil
	})
	return err
}
