package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/ids"
)

func newDoc(origin, externalID string) *domain.LegalDocument {
	return &domain.LegalDocument{
		ID:           ids.Document(origin, externalID),
		Origin:       origin,
		ExternalID:   externalID,
		Kind:         domain.KindStatute,
		Title:        "Title " + externalID,
		Jurisdiction: "CH",
		LegalDomain:  domain.DomainCivil,
	}
}

func newChunks(doc *domain.LegalDocument, n int) []domain.Chunk {
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Chunk{
			ID:           ids.Chunk(doc.ID, i),
			DocumentID:   doc.ID,
			Ordinal:      i,
			Role:         domain.RoleArticle,
			Text:         fmt.Sprintf("chunk %d", i),
			Kind:         doc.Kind,
			Jurisdiction: doc.Jurisdiction,
			LegalDomain:  doc.LegalDomain,
		})
	}
	return out
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestDocumentStore_UpsertKeepsIdentity(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.UpsertDocument(ctx, doc))
	created := doc.CreatedAt

	again := newDoc("fedlex", "co")
	again.Title = "Updated"
	require.NoError(t, store.UpsertDocument(ctx, again))

	got, err := store.FindDocument(ctx, "fedlex", "co")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, doc.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))

	all, err := store.ListDocuments(ctx, "fedlex")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentStore_UpsertInvalid(t *testing.T) {
	err := NewDocumentStore().UpsertDocument(context.Background(), &domain.LegalDocument{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	_, err := NewDocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ReplaceChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.UpsertDocument(ctx, doc))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, newChunks(doc, 4)))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, newChunks(doc, 2)))

	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
}

func TestDocumentStore_ReplaceChunks_RejectsBadSets(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	err := store.ReplaceChunks(ctx, doc.ID, newChunks(doc, 1))
	assert.True(t, domain.IsStoreWrite(err), "unknown document")

	require.NoError(t, store.UpsertDocument(ctx, doc))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, newChunks(doc, 3)))

	dup := newChunks(doc, 2)
	dup[1].Ordinal = 0
	err = store.ReplaceChunks(ctx, doc.ID, dup)
	assert.True(t, domain.IsStoreWrite(err))

	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 3, "failed replace must keep the previous set")
}

func TestDocumentStore_ReplaceDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.ReplaceDocument(ctx, doc, newChunks(doc, 3)))

	revised := newDoc("fedlex", "co")
	revised.ContentHash = "revised"
	dup := newChunks(revised, 2)
	dup[1].Ordinal = 0
	err := store.ReplaceDocument(ctx, revised, dup)
	assert.True(t, domain.IsStoreWrite(err))

	got, err := store.FindDocument(ctx, "fedlex", "co")
	require.NoError(t, err)
	assert.NotEqual(t, "revised", got.ContentHash)
	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	require.NoError(t, store.ReplaceDocument(ctx, revised, newChunks(revised, 1)))
	got, err = store.FindDocument(ctx, "fedlex", "co")
	require.NoError(t, err)
	assert.Equal(t, "revised", got.ContentHash)
	chunks, err = store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestDocumentStore_UpsertEmbeddingsSkipsReplacedChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.ReplaceDocument(ctx, doc, newChunks(doc, 1)))
	stale, err := store.PendingChunks(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	next := newChunks(doc, 1)
	next[0].Text = "Texte révisé"
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, next))

	stale[0].Embedding = []float32{1, 0}
	require.NoError(t, store.UpsertEmbeddings(ctx, stale))

	_, embedded, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, embedded)
}

func TestDocumentStore_ReturnedChunksAreCopies(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.UpsertDocument(ctx, doc))
	chunks := newChunks(doc, 1)
	chunks[0].Embedding = []float32{1, 2}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))

	chunks[0].Embedding[0] = 99
	got, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, float32(1), got[0].Embedding[0])
}

func TestDocumentStore_PendingAndEmbeddings(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("fedlex", "co")
	require.NoError(t, store.UpsertDocument(ctx, doc))
	chunks := newChunks(doc, 5)
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))

	pending, err := store.PendingChunks(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Less(t, pending[0].ID, pending[1].ID)

	rest, err := store.PendingChunks(ctx, pending[2].ID, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	pending[0].Embedding = []float32{1, 0}
	require.NoError(t, store.UpsertEmbeddings(ctx, pending[:1]))

	total, embedded, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 1, embedded)

	err = store.UpsertEmbeddings(ctx, []domain.Chunk{{ID: pending[1].ID}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_Search(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	vectors := map[string][]float32{
		"co": {1, 0},
		"lp": {0.6, 0.8},
		"cp": {0, 1},
	}
	for id, v := range vectors {
		doc := newDoc("fedlex", id)
		if id == "cp" {
			doc.LegalDomain = domain.DomainPenal
		}
		require.NoError(t, store.UpsertDocument(ctx, doc))
		chunks := newChunks(doc, 1)
		chunks[0].Embedding = v
		require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))
	}

	results, err := store.Search(ctx, []float32{1, 0}, 2, domain.RetrievalFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Title co", results[0].DocumentTitle)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.6, results[1].Score, 1e-9)

	penal, err := store.Search(ctx, []float32{1, 0}, 10, domain.RetrievalFilter{LegalDomain: domain.DomainPenal})
	require.NoError(t, err)
	require.Len(t, penal, 1)
	assert.Equal(t, "Title cp", penal[0].DocumentTitle)

	_, err = store.Search(ctx, []float32{1, 0, 0}, 10, domain.RetrievalFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := newDoc("es", fmt.Sprintf("doc-%d", i))
			assert.NoError(t, store.UpsertDocument(ctx, doc))
			assert.NoError(t, store.ReplaceChunks(ctx, doc.ID, newChunks(doc, 3)))
			_, _ = store.Search(ctx, []float32{1}, 5, domain.RetrievalFilter{})
		}(i)
	}
	wg.Wait()

	total, _, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, total)
}
