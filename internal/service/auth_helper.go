package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadSecret reads a secret from Secret Manager and falls back to the environment
// variable of the same name. An empty result is an error.
func LoadSecret(ctx context.Context, name string) (string, error) {
	if config.GCPProjectID != "" {
		client, err := secretmanager.NewClient(ctx)
		if err == nil {
			defer client.Close()

			secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", config.GCPProjectID, name)
			result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
				Name: secretName,
			})
			if err == nil {
				if v := strings.TrimSpace(string(result.Payload.Data)); v != "" {
					log.Printf("Secret %s loaded from Secret Manager", name)
					return v, nil
				}
			} else {
				log.Printf("Secret Manager access failed for %s: %v, falling back to env var", name, err)
			}
		} else {
			log.Printf("Secret Manager client creation failed: %v, falling back to env var", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s not found in Secret Manager or environment", name)
}

// StoreSecret adds value as the latest version of secret name, creating the secret
// with automatic replication when it does not exist yet.
func StoreSecret(ctx context.Context, projectID, name, value string) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create secretmanager client: %w", err)
	}
	defer client.Close()

	parent := fmt.Sprintf("projects/%s", projectID)
	_, err = client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   parent,
		SecretId: name,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Secret %s already exists (or creation failed), adding new version: %v", name, err)
	}

	_, err = client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  fmt.Sprintf("%s/secrets/%s", parent, name),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

// OAuthCredentials holds the OAuth client and the refresh token minted by `smartlegal oauth`.
type OAuthCredentials struct {
	RefreshToken string
	ClientID     string
	ClientSecret string

	tokenURL string
	once     sync.Once
	source   oauth2.TokenSource
}

var (
	oauthCreds   *OAuthCredentials
	oauthCredsMu sync.Mutex
)

// GetOAuthCredentials returns the process-wide OAuth credentials, loading them once.
func GetOAuthCredentials(ctx context.Context) (*OAuthCredentials, error) {
	oauthCredsMu.Lock()
	defer oauthCredsMu.Unlock()

	if oauthCreds != nil {
		return oauthCreds, nil
	}

	creds, err := loadOAuthCredentials(ctx)
	if err != nil {
		return nil, model.Kind(model.ErrAuth, err)
	}
	oauthCreds = creds
	return oauthCreds, nil
}

func (c *OAuthCredentials) oauthConfig() *oauth2.Config {
	endpoint := google.Endpoint
	if c.tokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: c.tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}
	return &oauth2.Config{ClientID: c.ClientID, ClientSecret: c.ClientSecret, Endpoint: endpoint}
}

// TokenSource returns the shared token source. It caches the access token and refreshes
// it shortly before expiry; it is safe for concurrent use.
func (c *OAuthCredentials) TokenSource() oauth2.TokenSource {
	c.once.Do(func() {
		// the source outlives the request that first asked for it
		c.source = c.oauthConfig().TokenSource(context.Background(), &oauth2.Token{RefreshToken: c.RefreshToken})
	})
	return c.source
}

// GetAccessToken returns a valid access token, refreshing it when needed.
func (c *OAuthCredentials) GetAccessToken() (string, error) {
	tok, err := c.TokenSource().Token()
	if err != nil {
		return "", model.Kind(model.ErrAuth, fmt.Errorf("failed to refresh token: %w", err))
	}
	return tok.AccessToken, nil
}

func loadOAuthCredentials(ctx context.Context) (*OAuthCredentials, error) {
	refreshToken, err := LoadSecret(ctx, config.SecretOAuthRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("OAuth refresh token not found: %w", err)
	}

	clientID := strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET"))
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("OAUTH_CLIENT_ID or OAUTH_CLIENT_SECRET not set")
	}

	creds := &OAuthCredentials{
		RefreshToken: refreshToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	if _, err := creds.GetAccessToken(); err != nil {
		return nil, fmt.Errorf("failed to get initial access token: %w", err)
	}
	log.Println("OAuth access token refreshed")

	return creds, nil
}
