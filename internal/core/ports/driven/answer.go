package driven

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// AnswerGenerator is the external answer-generation collaborator. It
// receives the query and the formatted evidence and returns free text that
// may contain a [SOURCES] block of attempted citations.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, evidence *domain.EvidenceBundle, prompt string) (string, error)
}

// Prompt names.
const (
	// PromptAnswerSystem is the system prompt of the answer generator. It
	// takes the formatted evidence as its single %s placeholder.
	PromptAnswerSystem = "answer_system"
)

// DefaultAnswerPrompt is used when no prompt store is configured or the
// stored template is unusable.
const DefaultAnswerPrompt = `Tu es un assistant d'information juridique en droit suisse.

CONTEXTE JURIDIQUE :
%s

RÈGLES :
1. Réponds uniquement à partir du contexte ci-dessus.
2. Cite chaque article de loi et chaque arrêt utilisé (art. X CO, ATF X XX XX).
3. Ne donne jamais de conseil juridique personnel.
4. Réponds dans la langue de la question.

À la fin de la réponse, liste les sources effectivement utilisées :
[SOURCES]
[{"reference": "Art. 41 CO", "title": "...", "url": "https://www.fedlex.admin.ch/..."}]
[/SOURCES]`

// PromptStore loads user-editable prompt templates by name.
type PromptStore interface {
	Load(name string) (string, error)
}
