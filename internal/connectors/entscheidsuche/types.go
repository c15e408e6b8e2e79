package entscheidsuche

import (
	"encoding/json"
	"regexp"
	"strings"
)

type searchResponse struct {
	Hits struct {
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

type hit struct {
	ID     string          `json:"_id"`
	Source decisionSource  `json:"_source"`
	Sort   json.RawMessage `json:"sort"`
}

type decisionSource struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	Title      localized `json:"title"`
	Reference  []string  `json:"reference"`
	Abstract   localized `json:"abstract"`
	Hierarchy  []string  `json:"hierarchy"`
	Canton     string    `json:"canton"`
	Attachment struct {
		ContentURL string `json:"content_url"`
		Language   string `json:"language"`
	} `json:"attachment"`
}

// localized is a per-language text. Plain strings decode under "".
type localized map[string]string

func (l *localized) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = localized{"": s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

// Get returns the text in lang, falling back to fr, de, it and then any value.
func (l localized) Get(lang string) string {
	for _, k := range []string{lang, "fr", "de", "it", ""} {
		if v := l[k]; v != "" {
			return v
		}
	}
	for _, v := range l {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
