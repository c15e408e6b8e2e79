package entscheidsuche

// Court describes a court or chamber in the hierarchy.
type Court struct {
	Name   string
	Canton string
}

// Courts maps hierarchy codes to human-readable names.
var Courts = map[string]Court{
	// Federal
	"CH_BGE_999":  {"ATF publiés", "CH"},
	"CH_BGE_012":  {"CEDH", "CH"},
	"CH_BGer_001": {"TF — Ire Cour de droit public", "CH"},
	"CH_BGer_002": {"TF — IIe Cour de droit public", "CH"},
	"CH_BGer_004": {"TF — Ire Cour de droit civil", "CH"},
	"CH_BGer_005": {"TF — IIe Cour de droit civil", "CH"},
	"CH_BGer_006": {"TF — Cour de droit pénal", "CH"},
	"CH_BGer_007": {"TF — IIe Cour de droit pénal", "CH"},
	"CH_BGer_008": {"TF — Ire Cour de droit social", "CH"},
	"CH_BGer_009": {"TF — IIe Cour de droit social", "CH"},
	"CH_BGer_016": {"TF — Tribunal pénal fédéral", "CH"},
	"CH_BVGE_001": {"TAF — Tribunal administratif fédéral", "CH"},
	"CH_BSTG_001": {"TPF — Tribunal pénal fédéral", "CH"},
	// Geneva
	"GE_CJ_001": {"GE — Chambre pénale d'appel et de révision", "GE"},
	"GE_CJ_002": {"GE — Chambre pénale de recours", "GE"},
	"GE_CJ_007": {"GE — Chambre des assurances sociales", "GE"},
	"GE_CJ_011": {"GE — Chambre administrative", "GE"},
	"GE_CJ_013": {"GE — Chambre civile", "GE"},
	"GE_CJ_014": {"GE — Chambre des baux et loyers", "GE"},
	// Vaud
	"VD_TC_002": {"VD — Cour d'appel pénale", "VD"},
	"VD_TC_004": {"VD — Cour d'appel civile", "VD"},
	"VD_TC_009": {"VD — Cour de droit administratif et public", "VD"},
	"VD_TC_010": {"VD — Chambre des recours pénale", "VD"},
	"VD_TC_013": {"VD — Cour des assurances sociales", "VD"},
	"VD_TC_031": {"VD — Chambre des recours civile", "VD"},
}

// CantonsRomands are the French-speaking cantons.
var CantonsRomands = []string{"GE", "VD", "NE", "FR", "VS", "JU"}
