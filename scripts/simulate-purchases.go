// Load generator for the purchase pipeline: registers N attendees and
// fires concurrent purchase requests at one event, so oversell protection
// can be watched under real contention.
//
// Usage:
//
//	go run scripts/simulate-purchases.go --event <event-id> --users 300
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	baseURL  = flag.String("url", "http://localhost:3000", "API base URL")
	eventID  = flag.String("event", "", "Event ID (required)")
	numUsers = flag.Int("users", 300, "Number of buyers to simulate")
	maxQty   = flag.Int("max-qty", 2, "Maximum quantity per purchase (1-5)")
	joinRate = flag.Duration("join-rate", 5*time.Millisecond, "Delay between launched buyers (0 for maximum pressure)")
)

type authResponse struct {
	AccessToken string `json:"access_token"`
}

type purchaseResponse struct {
	ScanCode string `json:"scan_code"`
}

func main() {
	flag.Parse()

	if *eventID == "" {
		fmt.Println("Error: --event flag is required")
		flag.Usage()
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var accepted, rejected, failed atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *numUsers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			token, err := register(client, n)
			if err != nil {
				failed.Add(1)
				fmt.Printf("buyer %d: register: %v\n", n, err)
				return
			}

			qty := 1 + rand.Intn(*maxQty)
			code, status, err := purchase(client, token, qty)
			switch {
			case err != nil:
				failed.Add(1)
				fmt.Printf("buyer %d: purchase: %v\n", n, err)
			case status == http.StatusAccepted:
				accepted.Add(1)
				fmt.Printf("buyer %d: accepted qty=%d scan=%s\n", n, qty, code)
			case status == http.StatusBadRequest:
				rejected.Add(1)
				fmt.Printf("buyer %d: rejected (capacity)\n", n)
			default:
				failed.Add(1)
				fmt.Printf("buyer %d: unexpected status %d\n", n, status)
			}
		}(i)

		if *joinRate > 0 {
			time.Sleep(*joinRate)
		}
	}

	wg.Wait()

	fmt.Printf("\nDone in %s: accepted=%d rejected=%d failed=%d\n",
		time.Since(start).Round(time.Millisecond), accepted.Load(), rejected.Load(), failed.Load())
	fmt.Println("Compare accepted count against the event's sold column once the worker drains the queue.")
}

func register(client *http.Client, n int) (string, error) {
	suffix := uuid.NewString()[:8]
	body, _ := json.Marshal(map[string]string{
		"username": fmt.Sprintf("loadbuyer-%d-%s", n, suffix),
		"email":    fmt.Sprintf("loadbuyer-%d-%s@example.com", n, suffix),
		"password": "load-test-pass",
	})

	resp, err := client.Post(*baseURL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func purchase(client *http.Client, token string, qty int) (string, int, error) {
	body, _ := json.Marshal(map[string]any{
		"event_id": *eventID,
		"quantity": qty,
	})

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/tickets/purchase", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	var out purchaseResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.ScanCode, resp.StatusCode, nil
}
