package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func newOAuthCmd() *cobra.Command {
	var (
		secretFile string
		listenAddr string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Mint the Google OAuth refresh token used for Drive, Docs, Sheets and Tasks",
		Long: `Runs the OAuth consent flow in the browser and prints the refresh token.

With --save the token is stored in Secret Manager as OAUTH_REFRESH_TOKEN of GCP_PROJECT_ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(secretFile)
			if err != nil {
				return fmt.Errorf("unable to read client secret file: %w", err)
			}
			cfg, err := oauthConfig(b, "http://"+listenAddr+"/")
			if err != nil {
				return err
			}

			token, err := runConsentFlow(cmd.Context(), cfg, listenAddr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refresh token:\n%s\n", token.RefreshToken)

			if !save {
				fmt.Fprintf(cmd.OutOrStdout(), "\nStore it with:\ngcloud secrets create %s --data-file=- <<< \"%s\"\n",
					config.SecretOAuthRefreshToken, token.RefreshToken)
				return nil
			}
			if config.GCPProjectID == "" {
				return fmt.Errorf("GCP_PROJECT_ID is not set")
			}
			if err := service.StoreSecret(cmd.Context(), config.GCPProjectID, config.SecretOAuthRefreshToken, token.RefreshToken); err != nil {
				return err
			}
			log.Printf("Refresh token saved to Secret Manager (%s)", config.SecretOAuthRefreshToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&secretFile, "client-secret", "client_secret.json", "OAuth client secret JSON downloaded from the GCP console")
	cmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8085", "address of the local redirect listener")
	cmd.Flags().BoolVar(&save, "save", false, "store the refresh token in Secret Manager")
	return cmd
}

func oauthConfig(clientSecret []byte, redirectURL string) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(clientSecret, service.OAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	cfg.RedirectURL = redirectURL
	return cfg, nil
}

// codeHandler forwards the authorization code of the redirect to codes.
func codeHandler(codes chan<- string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Error: no code in the response", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprint(w, "<h1>Autenticação concluída</h1><p>Feche esta janela e volte ao terminal.</p>")
	}
}

func runConsentFlow(ctx context.Context, cfg *oauth2.Config, listenAddr string) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	codes := make(chan string, 1)
	srv := &http.Server{Handler: codeHandler(codes), ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open this URL to authorize the app:\n\n%s\n\n", authURL)
	openBrowser(authURL)

	var code string
	select {
	case code = <-codes:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token returned, revoke the app access and try again")
	}
	return token, nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Could not open the browser, copy the URL above instead")
	}
}
