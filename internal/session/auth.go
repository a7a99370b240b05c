package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/railsahayak/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedLogin   = errors.New("unsupported login request")
)

type Credentials struct {
	Provider models.AuthProvider
	Email    string
	Password string
	Name     string
	IDToken  string // Google id token for federated sign-in
	SignUp   bool   // create the email account instead of signing in
}

// Identity is what an identity provider hands back on success.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

type Authenticator interface {
	SignIn(ctx context.Context, c Credentials) (Identity, error)
}

// DemoAuthenticator accepts any credentials. It stands in when no identity
// provider is configured.
type DemoAuthenticator struct{}

func (DemoAuthenticator) SignIn(_ context.Context, c Credentials) (Identity, error) {
	provider := c.Provider
	if provider == "" {
		provider = models.ProviderEmail
	}
	return Identity{
		UID:         "mock-" + strings.ToLower(string(provider)) + "-id",
		DisplayName: firstNonEmpty(strings.TrimSpace(c.Name), "Demo User"),
		Email:       firstNonEmpty(strings.TrimSpace(c.Email), "demo@railsahayak.com"),
	}, nil
}

const FirebaseEndpoint = "https://identitytoolkit.googleapis.com/v1"

// FirebaseAuthenticator signs in through the Identity Toolkit REST API.
type FirebaseAuthenticator struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewFirebaseAuthenticator(apiKey string, timeout time.Duration) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{Endpoint: FirebaseEndpoint, APIKey: apiKey, Client: &http.Client{Timeout: timeout}}
}

type firebaseUser struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

func (f *FirebaseAuthenticator) SignIn(ctx context.Context, c Credentials) (Identity, error) {
	var (
		u   firebaseUser
		err error
	)
	switch {
	case c.Provider == models.ProviderGoogle && c.IDToken != "":
		err = f.call(ctx, "accounts:signInWithIdp", map[string]any{
			"postBody":          url.Values{"id_token": {c.IDToken}, "providerId": {"google.com"}}.Encode(),
			"requestUri":        "http://localhost",
			"returnSecureToken": true,
		}, &u)
	case c.Provider != models.ProviderGoogle && c.Email != "" && c.Password != "":
		method := "accounts:signInWithPassword"
		if c.SignUp {
			method = "accounts:signUp"
		}
		err = f.call(ctx, method, map[string]any{
			"email":             c.Email,
			"password":          c.Password,
			"returnSecureToken": true,
		}, &u)
		if err == nil && c.SignUp && strings.TrimSpace(c.Name) != "" {
			u.DisplayName = strings.TrimSpace(c.Name)
			err = f.call(ctx, "accounts:update", map[string]any{
				"idToken":           u.IDToken,
				"displayName":       u.DisplayName,
				"returnSecureToken": false,
			}, nil)
		}
	default:
		return Identity{}, ErrUnsupportedLogin
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{UID: u.LocalID, DisplayName: u.DisplayName, Email: u.Email, PhotoURL: u.PhotoURL}, nil
}

func (f *FirebaseAuthenticator) call(ctx context.Context, method string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/%s?key=%s", strings.TrimRight(f.Endpoint, "/"), method, url.QueryEscape(f.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, e.Error.Message)
		}
		return fmt.Errorf("identity toolkit %s: status %d %s", method, resp.StatusCode, e.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ProfileFromIdentity applies the display fallbacks: display name, then the
// email prefix, then "Traveller".
func ProfileFromIdentity(id Identity, provider models.AuthProvider) models.UserProfile {
	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		if at := strings.Index(id.Email, "@"); at > 0 {
			name = id.Email[:at]
		}
	}
	if name == "" {
		name = "Traveller"
	}
	avatar := id.PhotoURL
	if avatar == "" {
		avatar = "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
	}
	if provider == "" {
		provider = models.ProviderEmail
	}
	return models.UserProfile{
		ID:       id.UID,
		Name:     name,
		Email:    id.Email,
		Avatar:   avatar,
		Provider: provider,
		Level:    "Scout",
		Points:   100,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
