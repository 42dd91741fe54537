package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-authgate/tokenserver/internal/bootstrap"
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/services"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/util"
	"github.com/go-authgate/tokenserver/internal/version"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		runServer()
	case "client":
		runClient(args[1:])
	case "purge":
		runPurge()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("OAuth 2.0 token server")
	fmt.Println("\nCommands:")
	fmt.Println("  server           Start the token server")
	fmt.Println("  client create    Register a client and print its credentials")
	fmt.Println("  purge            Delete expired tokens and authorization codes")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()
	if err := bootstrap.Run(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openStore(cfg *config.Config) *store.Store {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return db
}

func runClient(args []string) {
	if len(args) == 0 || args[0] != "create" {
		fmt.Println("Usage: client create -name NAME [-public] [-grants LIST] [-scopes LIST] [-redirect-uris LIST] [-password-client] [-personal-access-client]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("client create", flag.ExitOnError)
	name := fs.String("name", "", "Client name (required)")
	public := fs.Bool("public", false, "Create a public client without a secret")
	grants := fs.String("grants", "", "Space-separated allowed grant types (empty = all)")
	scopes := fs.String("scopes", "", "Space-separated allowed scopes (empty = any)")
	redirects := fs.String("redirect-uris", "", "Comma-separated redirect URIs")
	passwordClient := fs.Bool("password-client", false, "Allow the password grant")
	personalClient := fs.Bool("personal-access-client", false, "Use as the personal access client")
	_ = fs.Parse(args[1:])

	cfg := config.Load()
	db := openStore(cfg)
	defer db.Close()

	clients, err := services.NewClientService(db, util.NewBcryptHasher(cfg.BcryptCost))
	if err != nil {
		log.Fatalf("Failed to initialize client service: %v", err)
	}

	var redirectURIs []string
	for _, uri := range strings.Split(*redirects, ",") {
		if uri = strings.TrimSpace(uri); uri != "" {
			redirectURIs = append(redirectURIs, uri)
		}
	}

	resp, err := clients.CreateClient(context.Background(), services.CreateClientRequest{
		Name:                 *name,
		Scopes:               *scopes,
		GrantTypes:           *grants,
		RedirectURIs:         redirectURIs,
		Confidential:         !*public,
		PasswordClient:       *passwordClient,
		PersonalAccessClient: *personalClient,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	fmt.Printf("Client ID:     %s\n", resp.ID)
	if resp.ClientSecretPlain != "" {
		fmt.Printf("Client Secret: %s\n", resp.ClientSecretPlain)
		fmt.Println("Store the secret now; it cannot be shown again.")
	}
}

func runPurge() {
	cfg := config.Load()
	db := openStore(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := db.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		log.Fatalf("Failed to purge expired tokens: %v", err)
	}
	fmt.Printf("Purged %d expired rows\n", purged)
}
