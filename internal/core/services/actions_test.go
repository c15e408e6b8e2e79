package services

import (
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func TestFormatCitation(t *testing.T) {
	item := scored("c1", "Art. 41 CO", domain.KindStatute, "CH", 0.9)
	assert.Equal(t, "Art. 41 CO (Titre Art. 41 CO)\nhttps://example.test/c1\n\nTexte de Art. 41 CO", FormatCitation(&item))

	item.DocumentTitle = "Art. 41 CO"
	item.Chunk.URL = ""
	assert.Equal(t, "Art. 41 CO\n\nTexte de Art. 41 CO", FormatCitation(&item))
}

func TestEvidenceActions_OpenSource(t *testing.T) {
	if runtime.GOOS != osDarwin && runtime.GOOS != osLinux && runtime.GOOS != osWindows {
		t.Skip("unsupported platform")
	}
	var ran []*exec.Cmd
	actions := &EvidenceActions{run: func(cmd *exec.Cmd) error {
		ran = append(ran, cmd)
		return nil
	}}

	item := scored("c1", "Art. 41 CO", domain.KindStatute, "CH", 0.9)
	require.NoError(t, actions.OpenSource(&item))
	require.Len(t, ran, 1)
	assert.Contains(t, ran[0].Args, "https://example.test/c1")

	item.Chunk.URL = "file:///etc/passwd"
	assert.Error(t, actions.OpenSource(&item))
	item.Chunk.URL = ""
	assert.Error(t, actions.OpenSource(&item))
	assert.Len(t, ran, 1)

	assert.Error(t, actions.OpenSource(nil))
	assert.Error(t, actions.CopyCitation(nil))
}
