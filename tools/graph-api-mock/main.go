// A tiny stand-in for the Meta Graph API messages endpoint, used when
// running the notify worker locally without WhatsApp credentials.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

type messageRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		log.Printf("mock graph api: would send to %s: %q", req.To, req.Text.Body)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"messages":[{"id":"wamid.MOCK"}]}`)
	})

	log.Println("Mock Graph API listening on :8081")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
