//go:build ignore
// +build ignore

// Manual concurrency stress test for the borrow endpoint.
//
// Usage:
//
//	go run ./scripts/concurrency_test.go <book_id> <patron1_id> [patron2_id ...]
//
// Or via environment variables:
//
//	BOOK_ID=<id>  PATRON_IDS=<p1,p2,...>  go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires N goroutines (one per patron) all attempting to borrow the same
//     book simultaneously.
//  2. Tallies successful borrows vs. rejections.
//  3. The store's guarded availability update means successes can never
//     exceed the book's available copies; if they do, the invariant is broken.
//
// Prerequisites:
//   - Server running on SERVER_ADDR (default http://localhost:8080).
//   - A book with a known id and some available copies.
//   - Patron ids must be 6-digit numeric strings.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type borrowResult struct {
	PatronID   string
	Success    bool
	Message    string
	StatusCode int
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	bookID := os.Getenv("BOOK_ID")
	patronIDsEnv := os.Getenv("PATRON_IDS")

	var patronIDs []string
	if patronIDsEnv != "" {
		patronIDs = strings.Split(patronIDsEnv, ",")
	}

	args := os.Args[1:]
	if len(args) >= 1 {
		bookID = args[0]
	}
	if len(args) >= 2 {
		patronIDs = args[1:]
	}

	if bookID == "" {
		log.Fatal("Usage: BOOK_ID=<id> PATRON_IDS=<p1,p2,...> go run ./scripts/concurrency_test.go\n" +
			"  or: go run ./scripts/concurrency_test.go <book_id> <patron1_id> [patron2_id ...]")
	}
	if len(patronIDs) == 0 {
		log.Fatal("At least one patron ID must be provided via PATRON_IDS env or positional args")
	}

	fmt.Printf("=== Borrow Concurrency Test ===\n")
	fmt.Printf("Server  : %s\n", serverAddr)
	fmt.Printf("Book    : %s\n", bookID)
	fmt.Printf("Patrons : %d\n\n", len(patronIDs))

	results := make([]borrowResult, len(patronIDs))
	var wg sync.WaitGroup

	// Barrier so every request fires at once.
	start := make(chan struct{})

	for i, pid := range patronIDs {
		wg.Add(1)
		go func(idx int, patronID string) {
			defer wg.Done()
			<-start
			results[idx] = attemptBorrow(serverAddr, bookID, strings.TrimSpace(patronID))
		}(i, pid)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)

	wg.Wait()
	fmt.Println("All requests completed.")
	fmt.Println()

	var successes, rejections, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] patron=%-8s err=%v\n", r.PatronID, r.Err)
		case r.Success:
			successes++
			fmt.Printf("  [BRRW] patron=%-8s status=%d %s\n", r.PatronID, r.StatusCode, r.Message)
		default:
			rejections++
			fmt.Printf("  [REJ ] patron=%-8s status=%d %s\n", r.PatronID, r.StatusCode, r.Message)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Borrows    : %d\n", successes)
	fmt.Printf("Rejections : %d\n", rejections)
	fmt.Printf("Failures   : %d\n", failures)
	fmt.Printf("Total      : %d\n\n", len(patronIDs))

	fmt.Println("--- Invariant Check ---")
	fmt.Println("The guarded availability UPDATE rejects any decrement past zero, so the")
	fmt.Printf("number of successful borrows (%d) must not exceed the book's available copies.\n", successes)

	if failures > 0 {
		fmt.Printf("\n[WARNING] %d request(s) failed — check server logs for details.\n", failures)
		os.Exit(1)
	}
}

// attemptBorrow sends POST /borrow for one patron and parses the tagged
// result from the response body.
func attemptBorrow(serverAddr, bookID, patronID string) borrowResult {
	url := fmt.Sprintf("%s/borrow", serverAddr)
	body := fmt.Sprintf(`{"patron_id":"%s","book_id":%s}`, patronID, bookID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		return borrowResult{PatronID: patronID, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return borrowResult{PatronID: patronID, StatusCode: resp.StatusCode, Err: fmt.Errorf("bad JSON: %s", raw)}
	}

	return borrowResult{
		PatronID:   patronID,
		Success:    parsed.Success,
		Message:    parsed.Message,
		StatusCode: resp.StatusCode,
	}
}
