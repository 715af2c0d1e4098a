package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// Patterns for promoting image URLs in model output to markdown embeds.
var (
	labeledImagePattern = regexp.MustCompile(`\*\*(Avatar|Image|Logo):\*\*\s*(https?://[^\s<>()]+)`)
	imageExtPattern     = regexp.MustCompile(`(?i)https?://[^\s<>()]+\.(?:png|jpe?g|gif|webp|svg)(?:\?[^\s<>()]*)?`)
	hostedImagePattern  = regexp.MustCompile(`https?://(?:tokens-data\.1inch\.io|tokens\.1inch\.io|cdn\.1inch\.io|ipfs\.io|cloudflare-ipfs\.com|metadata\.ens\.domains|i\.seadn\.io|openseauserdata\.com)/[^\s<>()]+`)
)

// Lines carrying these fragments are internal scaffolding and are stripped
// from the final answer.
var scrubFragments = []string{
	"[INTERNAL PROCESSING",
	"INTERNAL PROCESSING",
	"DO NOT INCLUDE IN RESPONSE",
	"What additional tools should be called",
	"The following tool results were obtained",
	"without mentioning this internal processing",
}

// Clean post-processes a final answer: embeds image URLs as markdown images
// (labeled URLs first, then bare image-extension URLs, then known image
// hosts, each URL at most once), strips leaked scaffolding lines, and trims
// whitespace. Clean is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	processed := map[string]bool{}
	out := text

	for _, match := range labeledImagePattern.FindAllStringSubmatch(out, -1) {
		label, url := match[1], match[2]
		out = embedImage(out, url, label, processed)
	}
	for _, url := range imageExtPattern.FindAllString(out, -1) {
		out = embedImage(out, url, "image", processed)
	}
	for _, url := range hostedImagePattern.FindAllString(out, -1) {
		out = embedImage(out, url, "image", processed)
	}

	out = scrubScaffolding(out)
	return strings.TrimSpace(out)
}

// embedImage appends a markdown image for url after its first occurrence,
// unless the URL is already part of a markdown image or was handled earlier
// in this pass.
func embedImage(text, url, alt string, processed map[string]bool) string {
	url = strings.TrimRight(url, ".,;:")
	if processed[url] {
		return text
	}
	processed[url] = true

	// Already embedded, either by the model or by a previous Clean call.
	if strings.Contains(text, "]("+url+")") {
		return text
	}

	idx := strings.Index(text, url)
	if idx < 0 {
		return text
	}
	lineEnd := strings.Index(text[idx:], "\n")
	insertAt := len(text)
	if lineEnd >= 0 {
		insertAt = idx + lineEnd
	}
	embed := fmt.Sprintf("\n\n![%s](%s)", alt, url)
	return text[:insertAt] + embed + text[insertAt:]
}

func scrubScaffolding(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if lineHasScaffolding(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func lineHasScaffolding(line string) bool {
	for _, fragment := range scrubFragments {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}
