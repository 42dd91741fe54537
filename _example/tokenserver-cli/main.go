package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	serverURL    string
	clientID     string
	clientSecret string
	scopes       []string
)

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	serverURL = getEnv("SERVER_URL", "http://localhost:8080")
	clientID = getEnv("CLIENT_ID", "")
	clientSecret = getEnv("CLIENT_SECRET", "")
	scopes = strings.Fields(getEnv("SCOPES", ""))

	if clientID == "" || clientSecret == "" {
		fmt.Println("Error: CLIENT_ID and CLIENT_SECRET must be set in .env or the environment.")
		fmt.Println("Create a client with: tokenserver client create -name cli -grants client_credentials")
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func main() {
	fmt.Printf("=== OAuth Client Credentials CLI Demo ===\n")

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     serverURL + "/oauth/token",
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.Background()

	// Step 1: Request token
	fmt.Println("Step 1: Requesting access token...")
	token, err := config.Token(ctx)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			fmt.Printf("Token request rejected: %s (%s)\n", rerr.ErrorCode, rerr.ErrorDescription)
		} else {
			fmt.Printf("Error requesting token: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Access Token: %s...\n", token.AccessToken[:min(50, len(token.AccessToken))])
	fmt.Printf("Token Type: %s\n", token.Type())
	fmt.Printf("Expires In: %s\n", time.Until(token.Expiry).Round(time.Second))
	fmt.Printf("========================================\n")

	// Step 2: Verify token
	fmt.Println("\nStep 2: Verifying token...")
	if err := verifyToken(ctx, config.Client(ctx)); err != nil {
		fmt.Printf("Token verification failed: %v\n", err)
	} else {
		fmt.Println("Token verified successfully!")
	}

	// Step 3: Revoke token
	fmt.Println("\nStep 3: Revoking token...")
	if err := revokeToken(ctx, token.AccessToken); err != nil {
		fmt.Printf("Revocation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Token revoked.")
}

// verifyToken calls tokeninfo through a client that attaches the bearer token
func verifyToken(ctx context.Context, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/oauth/tokeninfo", nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		_ = json.Unmarshal(body, &errResp)
		return fmt.Errorf("%s: %s", errResp.Error, errResp.ErrorDescription)
	}

	fmt.Printf("Token Info: %s\n", string(body))
	return nil
}

func revokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		serverURL+"/oauth/token/revoke",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%s: %s", errResp.Error, errResp.ErrorDescription)
	}
	return nil
}
