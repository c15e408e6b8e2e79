package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func groundedRetrieval() *domain.Retrieval {
	return &domain.Retrieval{
		Verdict:  domain.VerdictGrounded,
		TopScore: 0.81,
		Evidence: &domain.EvidenceBundle{
			Query:     "Haftung aus unerlaubter Handlung",
			MaxScore:  0.81,
			Threshold: 0.35,
			Items: []domain.ScoredChunk{
				{
					Chunk: domain.Chunk{
						ID: "c1", Role: domain.RoleArticle, Citation: "Art. 41 OR",
						Text: "Wer einem andern widerrechtlich Schaden zufügt,\n sei es mit Absicht...",
						URL:  "https://www.fedlex.admin.ch/eli/cc/27/317_321_377/de#art_41",
						Kind: domain.KindStatute, Jurisdiction: "CH",
					},
					DocumentTitle: "Obligationenrecht",
					Score:         0.81,
				},
				{
					Chunk:         domain.Chunk{ID: "c2", Role: domain.RoleArticle, Citation: "Art. 42 OR", Kind: domain.KindStatute, Jurisdiction: "CH"},
					DocumentTitle: "Obligationenrecht",
					Score:         0.52,
				},
			},
		},
	}
}

func TestRetrieveCmd_RequiresQuery(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "retrieve")
	assert.Error(t, err)

	_, err = execute(t, "retrieve", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveCmd_Ungrounded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retriever.retrieval = &domain.Retrieval{Verdict: domain.VerdictUngrounded, TopScore: 0.2}

	out, err := execute(t, "retrieve", "Wetter in Bern")

	require.NoError(t, err)
	assert.Contains(t, out, "No reliable source found (best score 0.20, threshold 0.35).")
	assert.NotContains(t, out, "Evidence")
}

func TestRetrieveCmd_Grounded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retriever.retrieval = groundedRetrieval()

	out, err := execute(t, "retrieve", "Haftung")

	require.NoError(t, err)
	assert.Contains(t, out, "Evidence (2 passages, threshold 0.35):")
	assert.Contains(t, out, "[1] Art. 41 OR (0.81)")
	assert.Contains(t, out, "Article, statute, CH")
	assert.Contains(t, out, "zufügt, sei es")
	assert.Contains(t, out, "[2] Art. 42 OR (0.52)")
}

func TestRetrieveCmd_FiltersAndLimit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retriever.retrieval = groundedRetrieval()

	out, err := execute(t, "retrieve", "Haftung", "-j", "zh", "-k", "Statute", "-n", "1")

	require.NoError(t, err)
	assert.Equal(t, "ZH", ts.retriever.lastFilter.Jurisdiction)
	assert.Equal(t, domain.KindStatute, ts.retriever.lastFilter.Kind)
	assert.Contains(t, out, "[1] Art. 41 OR")
	assert.NotContains(t, out, "[2]")
}

func TestRetrieveCmd_InvalidKind(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "retrieve", "Haftung", "--kind", "ordinance")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retriever.retrieval = groundedRetrieval()

	out, err := execute(t, "retrieve", "Haftung", "--json")
	require.NoError(t, err)

	var got retrievalJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "grounded", got.Verdict)
	assert.InDelta(t, 0.35, got.Threshold, 1e-9)
	require.Len(t, got.Evidence, 2)
	assert.Equal(t, "Art. 41 OR", got.Evidence[0].Citation)
	assert.Nil(t, got.Answer)
}

func TestRetrieveCmd_JSONUngroundedHasEmptyEvidence(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "retrieve", "Wetter", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"evidence": []`)
	assert.Contains(t, out, `"verdict": "ungrounded"`)
}

func TestRetrieveCmd_Answer(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answerer.answer = &domain.Answer{
		Text: "Wer widerrechtlich Schaden zufügt, haftet (Art. 41 OR).",
		Citations: []domain.Citation{
			{Reference: "Art. 41 OR", Verified: true},
			{Reference: "Art. 999 OR", Verified: false},
		},
		Flagged:   true,
		Retrieval: groundedRetrieval(),
	}

	out, err := execute(t, "retrieve", "Haftung", "--answer")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer:")
	assert.Contains(t, out, "- Art. 41 OR [ok]")
	assert.Contains(t, out, "- Art. 999 OR [UNVERIFIED]")
	assert.Contains(t, out, "Warning: the answer cites sources")
}

func TestRetrieveCmd_AnswerWithoutCitations(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answerer.answer = &domain.Answer{
		Text:      "Der Vermieter haftet.",
		Flagged:   true,
		Retrieval: groundedRetrieval(),
	}

	out, err := execute(t, "retrieve", "Haftung", "--answer")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: the answer cites no sources.")
	assert.NotContains(t, out, "not part of the evidence")
}

func TestRetrieveCmd_AnswerRefused(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answerer.answer = &domain.Answer{
		Text:      "refused",
		Refused:   true,
		Retrieval: &domain.Retrieval{Verdict: domain.VerdictUngrounded, TopScore: 0.1},
	}

	out, err := execute(t, "retrieve", "Wetter", "--answer", "--json")
	require.NoError(t, err)

	var got retrievalJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Answer)
	assert.True(t, got.Answer.Refused)
	assert.NotNil(t, got.Answer.Citations)
	assert.Empty(t, got.Evidence)
}

func TestRetrieveCmd_AnswerNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	answerer = nil

	_, err := execute(t, "retrieve", "Haftung", "--answer")

	assert.EqualError(t, err, "answer generator not configured")
}

func TestRetrieveCmd_RetrievalError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retriever.err = &domain.RetrievalError{Stage: "embedding", Err: domain.ErrEmbeddingUnavailable}

	_, err := execute(t, "retrieve", "Haftung")

	require.Error(t, err)
	var rerr *domain.RetrievalError
	assert.ErrorAs(t, err, &rerr)
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Art. 1", 10, "Art. 1"},
		{"collapses whitespace", "a\n\n  b\tc", 10, "a b c"},
		{"truncates runes", "Zürich Genève", 6, "Zürich..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.in, tt.n))
		})
	}
}
