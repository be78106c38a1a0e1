package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const webhookPayload = `{
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "from": "%s",
          "type": "location",
          "location": {"latitude": %f, "longitude": %f}
        }]
      }
    }]
  }]
}`

func main() {
	// Configuration
	url := "http://localhost:8080/api/v1/webhook/whatsapp"
	contentType := "application/json"

	numWorkers := 5000
	pingsPerWorker := 2
	totalRequests := numWorkers * pingsPerWorker
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d workers (%d pings each) to %s with concurrency %d\n",
		numWorkers, pingsPerWorker, url, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			// Jitter the position a little around a fixed site
			lat := 28.6139 + rand.Float64()*0.001
			lon := 77.2090 + rand.Float64()*0.001
			number := fmt.Sprintf("9198765%05d", i%numWorkers)
			body := fmt.Sprintf(webhookPayload, number, lat, lon)

			resp, err := http.Post(url, contentType, bytes.NewBufferString(body))
			if err != nil || resp.StatusCode >= 500 {
				atomic.AddInt64(&failCount, 1)
			} else {
				atomic.AddInt64(&successCount, 1)
			}
			if resp != nil {
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	fmt.Printf("Done in %s: %d ok, %d failed\n", time.Since(start), successCount, failCount)
}
