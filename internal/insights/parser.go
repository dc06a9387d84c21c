package insights

import (
	"encoding/json"
	"fmt"
	"strings"
)

type weakAreaResponse struct {
	WeakAreas []WeakAreaTag `json:"weak_areas"`
}

var validCategories = map[string]bool{
	"concept":     true,
	"procedure":   true,
	"vocabulary":  true,
	"application": true,
}

// ParseWeakAreas parses the model's weak-area JSON. Entries without a
// topic are dropped; unknown categories fall back to "concept". Models
// sometimes wrap JSON in markdown fences despite instructions, so those
// are stripped first.
func ParseWeakAreas(responseBody string) ([]WeakAreaTag, error) {
	cleaned := stripCodeFences(responseBody)

	var parsed weakAreaResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var tags []WeakAreaTag
	for _, t := range parsed.WeakAreas {
		topic := strings.ToLower(strings.TrimSpace(t.Topic))
		if topic == "" {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(t.Category))
		if !validCategories[category] {
			category = "concept"
		}
		tags = append(tags, WeakAreaTag{Topic: topic, Category: category})
	}

	return tags, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
