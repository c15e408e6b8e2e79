package statute

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/postprocessors/chunker"
)

func newStrategy(maxChars int) *Strategy {
	return New(chunker.New(chunker.WithMaxChars(maxChars), chunker.WithMinChars(0)))
}

func TestStrategy_Metadata(t *testing.T) {
	s := newStrategy(100)
	assert.Equal(t, "statute", s.Name())
	assert.Equal(t, domain.KindStatute, s.Kind())
}

func TestChunk_ArticleSections(t *testing.T) {
	doc := &domain.LegalDocument{
		Kind:      domain.KindStatute,
		Reference: "CO",
		URL:       "https://www.fedlex.admin.ch/eli/cc/27/317_321_377/fr",
		Sections: []domain.Section{
			{Kind: domain.SectionArticle, Label: "Art. 41 Conditions de la responsabilité", Anchor: "art_41",
				Path: []string{"Titre premier", "Chapitre II"}, Text: "1 Celui qui cause un dommage à autrui est tenu de le réparer."},
			{Kind: domain.SectionArticle, Label: "Art. 42", Anchor: "art_42", Text: "La preuve du dommage incombe au demandeur."},
			{Kind: domain.SectionArticle, Label: "Art. 43", Anchor: "art_43", Text: "  "},
		},
	}

	chunks, err := newStrategy(500).Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	first := chunks[0]
	assert.Equal(t, domain.RoleArticle, first.Role)
	assert.Equal(t, "Art. 41 CO", first.Citation)
	assert.Equal(t, "https://www.fedlex.admin.ch/eli/cc/27/317_321_377/fr#art_41", first.URL)
	assert.Equal(t, "Titre premier > Chapitre II", first.Metadata["section_path"])
	assert.Equal(t, "Art. 41", first.Metadata["article"])

	assert.Equal(t, "Art. 42 CO", chunks[1].Citation)
}

func TestChunk_OversizedArticleIsNumbered(t *testing.T) {
	text := strings.Repeat("Le bailleur est tenu de délivrer la chose. ", 10)
	doc := &domain.LegalDocument{
		Kind:      domain.KindStatute,
		Reference: "CO",
		Sections:  []domain.Section{{Kind: domain.SectionArticle, Label: "Art. 256", Text: text}},
	}

	chunks, err := newStrategy(150).Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	total := len(chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 150)
		assert.Equal(t, fmt.Sprintf("Art. 256 CO (%d/%d)", i+1, total), c.Citation)
		assert.Equal(t, domain.RoleArticle, c.Role)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), joinChunks(chunks))
}

func TestChunk_ArticlesFromText(t *testing.T) {
	doc := &domain.LegalDocument{
		Kind:      domain.KindStatute,
		Reference: "LIPP/GE",
		URL:       "https://silgeneve.ch/legis/data/D_3_08.htm",
		Text: "Loi sur l'imposition des personnes physiques\n" +
			"Art. 1 Objet\nLa présente loi règle l'impôt sur le revenu.\n" +
			"Art. 2a Assujettissement\nSont assujetties les personnes domiciliées, cf. Art. 1.\n" +
			"§ 3 Disposition finale",
	}

	chunks, err := newStrategy(500).Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	assert.Equal(t, domain.RoleHeader, chunks[0].Role)
	assert.Equal(t, "LIPP/GE", chunks[0].Citation)
	assert.Equal(t, "Art. 1 LIPP/GE", chunks[1].Citation)
	assert.Equal(t, "Art. 2a LIPP/GE", chunks[2].Citation)
	assert.Contains(t, chunks[2].Text, "cf. Art. 1.")
	assert.Equal(t, "§ 3 LIPP/GE", chunks[3].Citation)
	assert.Equal(t, doc.URL, chunks[1].URL)
}

func TestChunk_PagesWithoutArticles(t *testing.T) {
	doc := &domain.LegalDocument{
		Kind:      domain.KindStatute,
		Reference: "Circ. AFC 45",
		Sections: []domain.Section{
			{Kind: domain.SectionPage, Page: 1, Text: "Circulaire relative à l'impôt anticipé."},
			{Kind: domain.SectionPage, Page: 2, Text: "Entrée en vigueur le 1er janvier."},
		},
	}

	chunks, err := newStrategy(500).Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.RoleFullText, chunks[0].Role)
	assert.Equal(t, "Circ. AFC 45, p. 1", chunks[0].Citation)
	assert.Equal(t, 2, chunks[1].Metadata["page"])
}

func TestChunk_PlainText(t *testing.T) {
	doc := &domain.LegalDocument{Kind: domain.KindStatute, ExternalID: "vs-lf", Text: "Texte sans structure."}

	chunks, err := newStrategy(500).Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "vs-lf", chunks[0].Citation)
	assert.Equal(t, domain.RoleFullText, chunks[0].Role)
}

func TestChunk_Empty(t *testing.T) {
	chunks, err := newStrategy(500).Chunk(context.Background(), &domain.LegalDocument{Kind: domain.KindStatute})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newStrategy(500).Chunk(ctx, &domain.LegalDocument{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArticleLabel(t *testing.T) {
	assert.Equal(t, "Art. 41", articleLabel("Art. 41 Responsabilité"))
	assert.Equal(t, "Art. 6a", articleLabel("Article 6a"))
	assert.Equal(t, "§ 12", articleLabel(" § 12 "))
	assert.Equal(t, "§3", articleLabel("§3"))
}

func TestAnchorURL(t *testing.T) {
	assert.Equal(t, "https://a/b#art_1", anchorURL("https://a/b#old", "art_1"))
	assert.Equal(t, "https://a/b", anchorURL("https://a/b", ""))
	assert.Equal(t, "", anchorURL("", "art_1"))
}

func joinChunks(chunks []domain.Chunk) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return strings.Join(strings.Fields(strings.Join(texts, " ")), " ")
}
