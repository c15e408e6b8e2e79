// Package citations finds statute article references in legal text.
package citations

import (
	"regexp"
	"sort"
	"strings"
)

// acts are the abbreviations recognised after an article number, in
// canonical case.
var acts = []string{
	"CO", "CC", "CP", "CPC", "CPP", "LP", "LTF", "LDIP", "LEI", "LAT", "Cst",
	"LFus", "LPGA", "LAVS", "LAMal", "CEDH", "LACI", "LPP", "LCA", "LDPJ",
	"OBLF", "LLCA", "LPD", "LCD", "LBI", "LDA", "OJ", "LaCC", "LaCP", "LIFD", "LHID",
}

var (
	canonical = func() map[string]string {
		m := make(map[string]string, len(acts))
		for _, a := range acts {
			m[strings.ToLower(a)] = a
		}
		return m
	}()

	articleRef = regexp.MustCompile(`(?i)\bart\.?\s*(\d+[a-z]?(?:\s*(?:al|let|ch|ss)\.?\s*\d*[a-z]?)*)\s+(` +
		strings.Join(acts, "|") + `)\b`)

	spaceRun = regexp.MustCompile(`\s+`)
)

// ArticleRefs returns the distinct references found in text, sorted, in
// the form "art. 271 al. 1 CO".
func ArticleRefs(text string) []string {
	matches := articleRef.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		number := strings.TrimSpace(spaceRun.ReplaceAllString(m[1], " "))
		ref := "art. " + number + " " + canonical[strings.ToLower(m[2])]
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return refs
}
