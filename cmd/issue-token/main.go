package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/forgo/storefront/api/internal/config"
	"github.com/forgo/storefront/api/internal/service"
)

func main() {
	// Flags for customization
	claimsJSON := flag.String("claims", `{"email":"admin@storefront.dev"}`, "Token claims as a JSON object")
	envFile := flag.String("env", ".env", "Env file to load before reading TOKEN_* settings")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	tokens := service.NewTokenService(service.TokenServiceConfig{
		Secret:     cfg.Token.Secret,
		Algorithm:  cfg.Token.Algorithm,
		Issuer:     cfg.Token.Issuer,
		Expiration: cfg.Token.TTL,
	})

	token, err := tokens.IssueJSON([]byte(*claimsJSON))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error issuing token: %v\n", err)
		if errors.Is(err, service.ErrTokenConfiguration) {
			fmt.Fprintf(os.Stderr, "\nSet TOKEN_SECRET in the environment or in %s\n", *envFile)
		}
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"token":      token,
			"token_type": "Bearer",
			"algorithm":  cfg.Token.Algorithm,
		}
		if cfg.Token.TTL > 0 {
			output["expires_in"] = int(cfg.Token.TTL.Seconds())
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	fmt.Println("Token Issued")
	fmt.Println("============")
	fmt.Printf("Claims:    %s\n", *claimsJSON)
	fmt.Printf("Algorithm: %s\n", cfg.Token.Algorithm)
	if cfg.Token.TTL > 0 {
		fmt.Printf("Expires:   in %s\n", cfg.Token.TTL)
	} else {
		fmt.Println("Expires:   never")
	}
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' -X POST http://localhost:%s/products\n", token, cfg.Server.Port)
}
