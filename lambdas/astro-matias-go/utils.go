package main

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// maxDetailLength bounds error details that end up in speech.
	maxDetailLength = 100
	// maxLoggedBodyLength bounds payloads written to the log.
	maxLoggedBodyLength = 300
)

var detailReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "'", "")

// SanitizeDetail makes an error detail safe to speak and log:
// it keeps the first 100 characters, turns newlines into spaces and drops single quotes.
func SanitizeDetail(detail string) string {
	return detailReplacer.Replace(Truncate(detail, maxDetailLength))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ValidateWebhookURL validates that a webhook URL is safe to POST questions to.
// Allows HTTP only for localhost/127.0.0.1 (for testing), otherwise requires HTTPS.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("webhook URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	host := parsedURL.Hostname()
	isLocalhost := host == "localhost" || strings.HasPrefix(host, "127.")
	if parsedURL.Scheme != "https" && !(parsedURL.Scheme == "http" && isLocalhost) {
		return fmt.Errorf("webhook URL must use HTTPS scheme, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("webhook URL must have a host")
	}
	if parsedURL.User != nil {
		return fmt.Errorf("webhook URL cannot contain credentials")
	}
	if parsedURL.Fragment != "" {
		return fmt.Errorf("webhook URL cannot contain fragment: %s", parsedURL.Fragment)
	}
	if strings.Contains(parsedURL.Path, "..") {
		return fmt.Errorf("webhook URL path contains invalid characters (path traversal detected): %s", parsedURL.Path)
	}

	return nil
}
