package domain

// LegalDomain is the area of law a document or chunk belongs to.
type LegalDomain string

// Fixed taxonomy of legal domains.
const (
	DomainConstitutional LegalDomain = "droit_constitutionnel"
	DomainPublic         LegalDomain = "droit_public"
	DomainAdministrative LegalDomain = "droit_administratif"
	DomainCivil          LegalDomain = "droit_civil"
	DomainTenancy        LegalDomain = "droit_bail"
	DomainPenal          LegalDomain = "droit_penal"
	DomainSocial         LegalDomain = "droit_social"
	DomainTax            LegalDomain = "droit_fiscal"
	DomainEducation      LegalDomain = "education"
	DomainDefence        LegalDomain = "defense"
	DomainFinance        LegalDomain = "finances"
	DomainPlanning       LegalDomain = "amenagement"
	DomainEconomy        LegalDomain = "economie"

	// DomainUnclassified is assigned when no rule matched. It is never a guess.
	DomainUnclassified LegalDomain = "unclassified"
)

// JurisdictionFederal is the jurisdiction code of federal law.
const JurisdictionFederal = "CH"

// JurisdictionUnclassified is used when no jurisdiction could be derived.
const JurisdictionUnclassified = "unclassified"

var knownDomains = map[LegalDomain]bool{
	DomainConstitutional: true,
	DomainPublic:         true,
	DomainAdministrative: true,
	DomainCivil:          true,
	DomainTenancy:        true,
	DomainPenal:          true,
	DomainSocial:         true,
	DomainTax:            true,
	DomainEducation:      true,
	DomainDefence:        true,
	DomainFinance:        true,
	DomainPlanning:       true,
	DomainEconomy:        true,
	DomainUnclassified:   true,
}

// IsValid returns true if the domain is part of the taxonomy.
func (d LegalDomain) IsValid() bool {
	return knownDomains[d]
}

// Domains returns the taxonomy in a stable order.
func Domains() []LegalDomain {
	return []LegalDomain{
		DomainConstitutional, DomainPublic, DomainAdministrative,
		DomainCivil, DomainTenancy, DomainPenal, DomainSocial, DomainTax,
		DomainEducation, DomainDefence, DomainFinance, DomainPlanning,
		DomainEconomy, DomainUnclassified,
	}
}

// Classification is the jurisdiction and domain assigned to a document.
type Classification struct {
	Jurisdiction string
	LegalDomain  LegalDomain
}
