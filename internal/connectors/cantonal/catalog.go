package cantonal

// ScrapeMode tells how a law is obtained.
type ScrapeMode string

const (
	ModeHTML   ScrapeMode = "html"
	ModePDF    ScrapeMode = "pdf"
	ModeManual ScrapeMode = "manual"
)

// Law is one catalog entry.
type Law struct {
	Code         string
	Name         string
	Short        string
	RS           string
	URL          string
	Language     string
	Jurisdiction string
	Mode         ScrapeMode
	Selector     string
	LegalDomain  string
}

// TaxLaws is the catalog of cantonal tax laws. Manual entries have no
// parsable URL (single-page apps, PDFs behind navigation) and must be
// imported by hand.
var TaxLaws = []Law{
	{
		Code:         "JU",
		Name:         "Loi fiscale du Canton du Jura",
		Short:        "LFisc",
		RS:           "641.11",
		URL:          "https://rsju.jura.ch/en/viewdocument.html?idn=28021",
		Language:     "fr",
		Jurisdiction: "JU",
		Mode:         ModeHTML,
		Selector:     "div.article, div.law-text, .rs-text",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "NE",
		Name:         "Loi sur les contributions directes",
		Short:        "LCdir",
		RS:           "231.0",
		URL:          "https://www.rsne.ch/rsne/10011/231.0.html",
		Language:     "fr",
		Jurisdiction: "NE",
		Mode:         ModeHTML,
		Selector:     "div.article, article, .law-body",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "FR",
		Name:         "Loi sur les impôts cantonaux directs",
		Short:        "LICD",
		RS:           "631.1",
		URL:          "https://bdlf.fr.ch/app/fr/texts_of_law/631.1",
		Language:     "fr",
		Jurisdiction: "FR",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "VD",
		Name:         "Loi sur les impôts directs cantonaux",
		Short:        "LIDC",
		RS:           "642.11",
		URL:          "https://www.rsv.vd.ch/rsvsite/rsv_site/fr/CHtml01/page29A.xsl-5_INPUT0-642.11.html",
		Language:     "fr",
		Jurisdiction: "VD",
		Mode:         ModeHTML,
		Selector:     "div.text-body, .article-text, div.art",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "GE",
		Name:         "Loi sur l'imposition des personnes physiques",
		Short:        "LIPP",
		RS:           "D 3 08",
		URL:          "https://www.ge.ch/legislation/rsg/f/s/rsg_D3_08.html",
		Language:     "fr",
		Jurisdiction: "GE",
		Mode:         ModeHTML,
		Selector:     "div.law-text, .legis-article, td.article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "VS",
		Name:         "Loi fiscale",
		Short:        "LF",
		RS:           "642.1",
		URL:          "https://lex.vs.ch/app/fr/texts_of_law/642.1",
		Language:     "fr",
		Jurisdiction: "VS",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "TI",
		Name:         "Legge tributaria cantonale",
		Short:        "LT",
		RS:           "629",
		URL:          "https://m3.ti.ch/CAN/RLeggi/public/index.php/raccolta-leggi/legge/num/629",
		Language:     "it",
		Jurisdiction: "TI",
		Mode:         ModeHTML,
		Selector:     "div.testo-legge, .article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "BE",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "661.11",
		URL:          "https://www.belex.sites.be.ch/app/de/texts_of_law/661.11",
		Language:     "de",
		Jurisdiction: "BE",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "ZH",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "631.1",
		URL:          "https://www.zhlex.zh.ch/Erlass.html?Open&Ordnr=631.1",
		Language:     "de",
		Jurisdiction: "ZH",
		Mode:         ModeHTML,
		Selector:     "div.gesetzestext, .paragraph",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "BS",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "640.100",
		URL:          "https://www.gesetzessammlung.bs.ch/app/de/texts_of_law/640.100",
		Language:     "de",
		Jurisdiction: "BS",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "BL",
		Name:         "Steuer- und Finanzgesetz",
		Short:        "StFG",
		RS:           "331",
		URL:          "https://bl.clex.ch/app/de/texts_of_law/331",
		Language:     "de",
		Jurisdiction: "BL",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "SO",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "614.11",
		URL:          "https://bgs.so.ch/app/de/texts_of_law/614.11",
		Language:     "de",
		Jurisdiction: "SO",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "AG",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "651",
		URL:          "https://gesetzessammlungen.ag.ch/app/de/texts_of_law/651",
		Language:     "de",
		Jurisdiction: "AG",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "LU",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "620",
		URL:          "https://srl.lu.ch/app/de/texts_of_law/620",
		Language:     "de",
		Jurisdiction: "LU",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "SZ",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "621.110",
		URL:          "https://www.sz.ch/public/upload/assets/40843/621.110.pdf",
		Language:     "de",
		Jurisdiction: "SZ",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "ZG",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "632.1",
		URL:          "https://bgs.zg.ch/app/de/texts_of_law/632.1",
		Language:     "de",
		Jurisdiction: "ZG",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "SG",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "811.1",
		URL:          "https://www.gesetzessammlung.sg.ch/app/de/texts_of_law/811.1",
		Language:     "de",
		Jurisdiction: "SG",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "TG",
		Name:         "Gesetz über die Staats- und Gemeindesteuern",
		Short:        "StG",
		RS:           "640",
		URL:          "https://www.rechtsbuch.tg.ch/app/de/texts_of_law/640",
		Language:     "de",
		Jurisdiction: "TG",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "GR",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "720.200",
		URL:          "https://www.gr-lex.gr.ch/app/de/texts_of_law/720.200",
		Language:     "de",
		Jurisdiction: "GR",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "GL",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "613.1",
		URL:          "https://gesetze.gl.ch/app/de/texts_of_law/613.1",
		Language:     "de",
		Jurisdiction: "GL",
		Mode:         ModeHTML,
		Selector:     "div.article, .law-article",
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "SH",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "641.100",
		URL:          "https://www.sh.ch/CMS/Webseite/Kanton-Schaffhausen/Beh-rde/Verwaltung/Finanzdepartement/Steuerverwaltung-3540788-DE.html",
		Language:     "de",
		Jurisdiction: "SH",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "NW",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "521.1",
		URL:          "https://www.nw.ch/steueramt/686",
		Language:     "de",
		Jurisdiction: "NW",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "OW",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "641.4",
		URL:          "https://www.ow.ch/de/verwaltung/finanzdepartement/kantonale-steuerverwaltung/",
		Language:     "de",
		Jurisdiction: "OW",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "UR",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "631",
		URL:          "https://www.ur.ch/justiz-und-sicherheit/steuern",
		Language:     "de",
		Jurisdiction: "UR",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "AI",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "621.100",
		URL:          "https://www.ai.ch/themen/finanzen-steuern-und-versicherungen/steuern",
		Language:     "de",
		Jurisdiction: "AI",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "AR",
		Name:         "Steuergesetz",
		Short:        "StG",
		RS:           "621",
		URL:          "https://www.ar.ch/verwaltung/departement-finanzen/kantonales-steueramt/",
		Language:     "de",
		Jurisdiction: "AR",
		Mode:         ModeManual,
		LegalDomain:  "droit_fiscal",
	},
}

// Circulars are the federal tax administration circulars, published as PDF.
var Circulars = []Law{
	{
		Code:         "afc_ks1",
		Name:         "Circulaire AFC n°1 — Déductions des frais professionnels",
		Short:        "Circ. AFC 1",
		URL:          "https://www.estv.admin.ch/dam/estv/fr/dokumente/dbst/kreisschreiben/2016/1-025-D-2016-f.pdf",
		Language:     "fr",
		Jurisdiction: "CH",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "afc_ks8",
		Name:         "Circulaire AFC n°8 — Prévoyance professionnelle et IFD",
		Short:        "Circ. AFC 8",
		URL:          "https://www.estv.admin.ch/dam/estv/fr/dokumente/dbst/kreisschreiben/2016/8-025-D-2016-f.pdf",
		Language:     "fr",
		Jurisdiction: "CH",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "afc_ks18",
		Name:         "Circulaire AFC n°18 — Pilier 3a (OPP3) — montants déductibles",
		Short:        "Circ. AFC 18",
		URL:          "https://www.estv.admin.ch/dam/estv/fr/dokumente/dbst/kreisschreiben/2016/18-025-D-2016-f.pdf",
		Language:     "fr",
		Jurisdiction: "CH",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "afc_ks25",
		Name:         "Circulaire AFC n°25 — Imposition à la source",
		Short:        "Circ. AFC 25",
		URL:          "https://www.estv.admin.ch/dam/estv/fr/dokumente/dbst/kreisschreiben/2016/25-025-D-2016-f.pdf",
		Language:     "fr",
		Jurisdiction: "CH",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
	{
		Code:         "afc_ks31",
		Name:         "Circulaire AFC n°31 — Sociétés de personnes — Impôt sur le revenu et la fortune",
		Short:        "Circ. AFC 31",
		URL:          "https://www.estv.admin.ch/dam/estv/fr/dokumente/dbst/kreisschreiben/2016/31-025-D-2016-f.pdf",
		Language:     "fr",
		Jurisdiction: "CH",
		Mode:         ModePDF,
		LegalDomain:  "droit_fiscal",
	},
}
