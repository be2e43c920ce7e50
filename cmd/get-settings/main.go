package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

// Small debugging helper: fetch a clinic's settings straight from the
// upstream API and pretty-print the payload.

func makeRequest(httpClient *http.Client, url string, apiKey string) ([]byte, int, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("Constructing request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("Making request: %w", err)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("ReadAll: %w", err)
	}

	return data, resp.StatusCode, nil
}

func main() {
	clinicAPIURL := os.Getenv("CLINIC_API_URL")
	clinicAPIKey := os.Getenv("CLINIC_API_KEY")

	if clinicAPIURL == "" || clinicAPIKey == "" {
		log.Fatal("No clinic API url or key provided")
	}

	if len(os.Args) < 2 || os.Args[1] == "" {
		log.Fatal("No clinic id provided")
	}

	clinicID := os.Args[1]

	httpClient := &http.Client{}

	url := fmt.Sprintf("%s/v1/clinics/%s/settings", clinicAPIURL, clinicID)
	data, statusCode, err := makeRequest(httpClient, url, clinicAPIKey)
	if err != nil {
		log.Fatalf("Failed making request to clinic API: %v", err)
	}

	if statusCode != 200 {
		log.Fatalf("Clinic API returned non-200 status code: %d - %s", statusCode, string(data))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		log.Fatalf("Failed formatting response: %v", err)
	}

	fmt.Println(pretty.String())
}
