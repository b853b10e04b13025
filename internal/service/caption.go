package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// json3 is YouTube's timed-text format: a list of events, each holding
// text segments. Events without segments carry styling or window
// placement and contribute no text.
type json3Document struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	Segs []json3Segment `json:"segs"`
}

type json3Segment struct {
	UTF8 string `json:"utf8"`
}

// ParseJSON3 flattens a json3 caption payload into plain text. Segment
// texts are joined with single spaces and interior newlines collapsed,
// matching how the segments read when rendered.
func ParseJSON3(data []byte) (string, error) {
	var doc json3Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse json3 captions: %w", err)
	}

	var parts []string
	for _, event := range doc.Events {
		for _, seg := range event.Segs {
			text := strings.TrimSpace(strings.ReplaceAll(seg.UTF8, "\n", " "))
			if text == "" {
				continue
			}
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}
