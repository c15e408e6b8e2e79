// Package classifier assigns jurisdiction and legal domain to documents.
//
// Rules run in a fixed order and the first match wins:
//  1. explicit source metadata
//  2. the RS number range (statutes)
//  3. the case number prefix, BGE volume and court chamber (decisions)
//  4. keyword heuristics over the title and opening text
//
// When nothing matches the result is domain.DomainUnclassified.
package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// keywordWindow bounds the text scanned by keyword heuristics.
const keywordWindow = 4000

// rsPrefixes refine the RS range table for well-known collections.
var rsPrefixes = []struct {
	prefix string
	domain domain.LegalDomain
}{
	{"172", domain.DomainAdministrative},
	{"641", domain.DomainTax},
	{"642", domain.DomainTax},
	{"221.213", domain.DomainTenancy},
}

// rsRanges maps the first RS number block to a domain, by upper bound.
var rsRanges = []struct {
	below  int
	domain domain.LegalDomain
}{
	{200, domain.DomainConstitutional},
	{300, domain.DomainCivil},
	{400, domain.DomainPenal},
	{500, domain.DomainEducation},
	{600, domain.DomainDefence},
	{700, domain.DomainFinance},
	{800, domain.DomainPlanning},
	{900, domain.DomainSocial},
	{1000, domain.DomainEconomy},
}

// casePrefixes maps the Federal Supreme Court division digit of a case
// number ("4A_123/2020") to a domain.
var casePrefixes = map[string]domain.LegalDomain{
	"1": domain.DomainPublic, "2": domain.DomainPublic,
	"4": domain.DomainCivil, "5": domain.DomainCivil,
	"6": domain.DomainPenal, "7": domain.DomainPenal,
	"8": domain.DomainSocial, "9": domain.DomainSocial,
}

// bgeVolumes maps the volume of an official reports reference
// ("ATF 142 III 123") to a domain.
var bgeVolumes = map[string]domain.LegalDomain{
	"I": domain.DomainPublic, "IA": domain.DomainPublic, "IB": domain.DomainPublic,
	"II": domain.DomainCivil, "III": domain.DomainCivil,
	"IV": domain.DomainPenal, "V": domain.DomainSocial,
}

// chambers maps cantonal court chambers to a domain.
var chambers = map[string]domain.LegalDomain{
	"GE_CJ_001": domain.DomainPenal,
	"GE_CJ_002": domain.DomainPenal,
	"GE_CJ_007": domain.DomainSocial,
	"GE_CJ_011": domain.DomainAdministrative,
	"GE_CJ_013": domain.DomainCivil,
	"GE_CJ_014": domain.DomainTenancy,
	"VD_TC_002": domain.DomainPenal,
	"VD_TC_004": domain.DomainCivil,
	"VD_TC_009": domain.DomainAdministrative,
	"VD_TC_010": domain.DomainPenal,
	"VD_TC_013": domain.DomainSocial,
	"VD_TC_031": domain.DomainCivil,
}

// keywords are matched case-insensitively. Earlier entries win ties.
var keywords = []struct {
	domain domain.LegalDomain
	terms  []string
}{
	{domain.DomainTenancy, []string{"bail à loyer", "bailleur", "locataire", "loyer", "mietrecht", "mieter", "vermieter"}},
	{domain.DomainTax, []string{"impôt", "fiscal", "contribuable", "steuer", "taxation"}},
	{domain.DomainPenal, []string{"pénal", "infraction", "prévenu", "strafrecht", "strafverfahren", "beschuldigte"}},
	{domain.DomainSocial, []string{"assurance-invalidité", "assurance-chômage", "avs", "lamal", "prévoyance professionnelle", "sozialversicherung", "invalidenversicherung"}},
	{domain.DomainAdministrative, []string{"droit administratif", "autorité administrative", "verwaltungsrecht", "verwaltungsgericht"}},
	{domain.DomainConstitutional, []string{"constitution", "droits fondamentaux", "cst.", "bundesverfassung", "grundrecht"}},
	{domain.DomainPlanning, []string{"aménagement du territoire", "permis de construire", "zone à bâtir", "raumplanung", "baubewilligung"}},
	{domain.DomainEducation, []string{"enseignement", "école", "formation professionnelle", "hochschule", "schule"}},
	{domain.DomainEconomy, []string{"concurrence", "cartel", "commerce", "wettbewerb", "kartell"}},
	{domain.DomainFinance, []string{"finances publiques", "budget", "subvention", "finanzhaushalt"}},
	{domain.DomainDefence, []string{"armée", "militaire", "protection civile", "armee", "militär"}},
	{domain.DomainCivil, []string{"contrat", "obligations", "droit civil", "succession", "divorce", "vertrag", "zivilrecht", "erbrecht"}},
}

var (
	caseNumber = regexp.MustCompile(`\b(\d)[A-Z]_\d+`)
	bgeVolume  = regexp.MustCompile(`(?i)\b(?:BGE|ATF|DTF)\s+\d+\s+(I[ab]?|II|III|IV|V)\s`)
)

// Classifier implements the rule table.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the jurisdiction and legal domain of doc.
func (c *Classifier) Classify(doc *domain.LegalDocument) domain.Classification {
	return domain.Classification{
		Jurisdiction: jurisdiction(doc),
		LegalDomain:  legalDomain(doc),
	}
}

func jurisdiction(doc *domain.LegalDocument) string {
	for _, j := range []string{doc.Jurisdiction, doc.MetadataString("jurisdiction"), doc.MetadataString("canton")} {
		if j = strings.ToUpper(strings.TrimSpace(j)); j != "" && j != strings.ToUpper(domain.JurisdictionUnclassified) {
			return j
		}
	}
	if doc.MetadataString("source_type") == domain.SourceTypeFedlex {
		return domain.JurisdictionFederal
	}
	return domain.JurisdictionUnclassified
}

func legalDomain(doc *domain.LegalDocument) domain.LegalDomain {
	if d := explicit(doc); d != "" {
		return d
	}

	switch doc.Kind {
	case domain.KindStatute:
		if d := FromRS(doc.MetadataString("rs_number")); d != "" {
			return d
		}
	case domain.KindDecision:
		if d := FromReference(doc.Reference); d != "" {
			return d
		}
		if d := FromChambers(strings.Split(doc.MetadataString("hierarchy"), ",")...); d != "" {
			return d
		}
		if d := FromChambers(doc.MetadataString("chamber"), doc.MetadataString("court")); d != "" {
			return d
		}
	}

	if d := FromKeywords(doc.Title + "\n" + head(doc.Text, keywordWindow)); d != "" {
		return d
	}
	return domain.DomainUnclassified
}

func explicit(doc *domain.LegalDocument) domain.LegalDomain {
	for _, d := range []domain.LegalDomain{doc.LegalDomain, domain.LegalDomain(doc.MetadataString("legal_domain"))} {
		if d != "" && d != domain.DomainUnclassified && d.IsValid() {
			return d
		}
	}
	return ""
}

// FromRS maps an RS number such as "220" or "642.11" to a domain.
func FromRS(rs string) domain.LegalDomain {
	rs = strings.TrimSpace(rs)
	if rs == "" {
		return ""
	}
	for _, p := range rsPrefixes {
		if rs == p.prefix || strings.HasPrefix(rs, p.prefix+".") {
			return p.domain
		}
	}
	block := rs
	if i := strings.Index(rs, "."); i >= 0 {
		block = rs[:i]
	}
	n, err := strconv.Atoi(block)
	if err != nil || n < 0 {
		return ""
	}
	for _, r := range rsRanges {
		if n < r.below {
			return r.domain
		}
	}
	return ""
}

// FromReference maps a case number or an official reports reference.
func FromReference(ref string) domain.LegalDomain {
	if m := caseNumber.FindStringSubmatch(ref); m != nil {
		if d, ok := casePrefixes[m[1]]; ok {
			return d
		}
	}
	if m := bgeVolume.FindStringSubmatch(ref + " "); m != nil {
		if d, ok := bgeVolumes[strings.ToUpper(m[1])]; ok {
			return d
		}
	}
	return ""
}

// FromChambers returns the domain of the first known chamber code.
func FromChambers(codes ...string) domain.LegalDomain {
	for _, code := range codes {
		if d, ok := chambers[strings.TrimSpace(code)]; ok {
			return d
		}
	}
	return ""
}

// FromKeywords scores each domain by keyword hits and returns the best.
func FromKeywords(text string) domain.LegalDomain {
	text = strings.ToLower(text)
	best, bestScore := domain.LegalDomain(""), 0
	for _, k := range keywords {
		score := 0
		for _, term := range k.terms {
			score += strings.Count(text, term)
		}
		if score > bestScore {
			best, bestScore = k.domain, score
		}
	}
	return best
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
