package fedlex

import (
	"fmt"
	"strings"
)

const (
	prefixJolux = "PREFIX jolux: <http://data.legilux.public.lu/resource/ontology/jolux#>\n"
	prefixXSD   = "PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>\n"

	inForceFilter = `FILTER(?inForceStatus IN (
        <https://fedlex.data.admin.ch/vocabulary/enforcement-status/0>,
        <https://fedlex.data.admin.ch/vocabulary/enforcement-status/1>
    ))`
)

// sparqlResults is the application/sparql-results+json envelope.
type sparqlResults struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

type binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func value(b map[string]binding, key string) string {
	return b[key].Value
}

func actListQuery(language string, inForceOnly bool, rsNumbers []string, limit, offset int) string {
	var filters []string
	filters = append(filters, `FILTER(STRSTARTS(STR(?ca), "https://fedlex.data.admin.ch/eli/cc/"))`)
	if inForceOnly {
		filters = append(filters, inForceFilter)
	}
	if len(rsNumbers) > 0 {
		quoted := make([]string, len(rsNumbers))
		for i, rs := range rsNumbers {
			quoted[i] = fmt.Sprintf("%q", rs)
		}
		filters = append(filters, fmt.Sprintf("FILTER(STR(?rsId) IN (%s))", strings.Join(quoted, ", ")))
	}

	return prefixJolux + fmt.Sprintf(`SELECT DISTINCT ?ca ?rsId ?title ?titleShort ?inForceStatus WHERE {
    ?ca a jolux:ConsolidationAbstract ;
        jolux:isRealizedBy ?expr ;
        jolux:inForceStatus ?inForceStatus .
    ?expr jolux:language <%s> ;
          jolux:historicalLegalId ?rsId ;
          jolux:title ?title .
    OPTIONAL { ?expr jolux:titleShort ?titleShort . }
    %s
}
ORDER BY ?rsId ?ca
LIMIT %d
OFFSET %d`, language, strings.Join(filters, "\n    "), limit, offset)
}

func latestConsolidationQuery(actURI, today string) string {
	return prefixJolux + prefixXSD + fmt.Sprintf(`SELECT ?consolidation ?dateAppl WHERE {
    ?consolidation jolux:isMemberOf <%s> ;
                   jolux:dateApplicability ?dateAppl .
    FILTER(?dateAppl <= "%s"^^xsd:date)
}
ORDER BY DESC(?dateAppl)
LIMIT 1`, actURI, today)
}

func htmlManifestationQuery(consolidationURI, language string) string {
	return prefixJolux + fmt.Sprintf(`SELECT ?url WHERE {
    <%s> jolux:isRealizedBy ?expr .
    ?expr jolux:language <%s> ;
          jolux:isEmbodiedBy ?manif .
    ?manif jolux:userFormat <https://fedlex.data.admin.ch/vocabulary/user-format/html> ;
           jolux:isExemplifiedBy ?url .
}
LIMIT 1`, consolidationURI, language)
}
