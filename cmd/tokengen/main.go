// Package main provides a CLI tool for generating test actor tokens for the
// coopgate API. These tokens use the dev signing key and will NOT work in
// production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"coopgate/internal/session"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "coopgate"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Role      string            `json:"role"`
	Subject   string            `json:"subject"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	mintCmd := flag.NewFlagSet("mint", flag.ExitOnError)
	mintRole := mintCmd.String("role", "admin", "Actor role: member, admin or superadmin")
	mintSubject := mintCmd.String("subject", "dev-operator", "Token subject")
	mintKey := mintCmd.String("key", devSigningKey, "JWT signing key (must match the server's)")
	mintTTL := mintCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	mintJSON := mintCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "mint":
		mintCmd.Parse(os.Args[2:])
		mintToken(*mintRole, *mintSubject, *mintKey, *mintTTL, *mintJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test actor tokens for the coopgate API

WARNING: These tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen mint [flags]

Examples:
  # Mint an admin token with defaults
  tokengen mint

  # Mint a superadmin token valid for an hour
  tokengen mint -role superadmin -ttl 1h

  # Output as JSON
  tokengen mint -json

Use "tokengen mint -h" for flag details.`)
}

func mintToken(roleName, subject, signingKey string, ttl time.Duration, jsonOutput bool) {
	role, err := session.ParseRole(roleName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid role %q: must be member, admin or superadmin\n", roleName)
		os.Exit(1)
	}

	svc := session.NewTokenService(signingKey, defaultIssuer, ttl)
	token, err := svc.Mint(subject, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Role:      string(role),
			Subject:   subject,
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Actor Token (JWT)")
	fmt.Println("=================")
	fmt.Printf("Role:       %s\n", role)
	fmt.Printf("Subject:    %s\n", subject)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/v1/wizards")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
