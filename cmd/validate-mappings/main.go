package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/rs/zerolog"
)

/* validate-mappings - Standalone CLI tool to validate stub mapping files
 * Usage: go run ./cmd/validate-mappings [mappings dir or file]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	path := "mappings"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	fmt.Printf("Validating mappings: %s\n", path)
	fmt.Println(strings.Repeat("-", 50))

	// Webhooks are validated, never fired
	registry := stub.NewRegistry(webhook.NewAction(nil))
	store := stub.NewStore(registry)
	loader := stub.NewLoader(store, zerolog.Nop())

	info, err := os.Stat(path)
	if err != nil {
		fail(err)
	}
	if info.IsDir() {
		_, err = loader.LoadDir(path)
	} else {
		_, err = loader.LoadFile(path)
	}
	if err != nil {
		fail(err)
	}

	mappings := store.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d mapping(s):\n", len(mappings))

	for i, m := range mappings {
		method := m.Request.Method
		if method == "" {
			method = stub.AnyMethod
		}
		url := m.Request.URL
		if url == "" {
			url = m.Request.URLPath
		}
		if url == "" {
			url = "*"
		}

		fmt.Printf("\n%d. Mapping: %s\n", i+1, m.ID)
		fmt.Printf("   Request:  %s %s\n", method, url)
		fmt.Printf("   Response: %d\n", m.Response.StatusCode())
		for _, action := range m.PostServeActions {
			fmt.Printf("   Action:   %s\n", action.Name)
		}
	}

	fmt.Printf("\n✓ All mappings are valid!\n")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
