package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// snippetLength is the number of runes shown per evidence item.
const snippetLength = 240

var (
	retrieveJurisdiction string
	retrieveDomain       string
	retrieveKind         string
	retrieveLimit        int
	retrieveJSON         bool
	retrieveAnswer       bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve grounded evidence for a query",
	Long: `Embeds the query and returns the stored passages whose similarity passes
the relevance threshold. When nothing passes, the verdict is "ungrounded" and
no evidence is shown.

With --answer, a generated answer is produced from the evidence and its
citations are checked against it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveJurisdiction, "jurisdiction", "j", "", "restrict to a jurisdiction (CH or a canton code)")
	retrieveCmd.Flags().StringVarP(&retrieveDomain, "domain", "d", "", "restrict to a legal domain")
	retrieveCmd.Flags().StringVarP(&retrieveKind, "kind", "k", "", "restrict to statute or decision")
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 0, "maximum number of evidence items shown (0 = all)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveAnswer, "answer", false, "generate an answer from the evidence")
	rootCmd.AddCommand(retrieveCmd)
}

// evidenceJSON is the JSON shape of one evidence item.
type evidenceJSON struct {
	Citation     string   `json:"citation"`
	Title        string   `json:"title,omitempty"`
	URL          string   `json:"url,omitempty"`
	Score        float64  `json:"score"`
	Role         string   `json:"role"`
	Kind         string   `json:"kind"`
	Jurisdiction string   `json:"jurisdiction"`
	LegalDomain  string   `json:"legal_domain,omitempty"`
	ArticleRefs  []string `json:"article_refs,omitempty"`
	Text         string   `json:"text"`
}

// retrievalJSON is the JSON shape of a retrieval.
type retrievalJSON struct {
	Query     string         `json:"query"`
	Verdict   string         `json:"verdict"`
	TopScore  float64        `json:"top_score"`
	Threshold float64        `json:"threshold"`
	Evidence  []evidenceJSON `json:"evidence"`
	Answer    *answerJSON    `json:"answer,omitempty"`
}

// answerJSON is the JSON shape of a gated answer.
type answerJSON struct {
	Text      string            `json:"text"`
	Refused   bool              `json:"refused"`
	Flagged   bool              `json:"flagged"`
	Citations []domain.Citation `json:"citations"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		return fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}
	if retrieveAnswer && answerer == nil {
		return errors.New("answer generator not configured")
	}

	filter, err := domain.ParseRetrievalFilter(retrieveJurisdiction, retrieveDomain, retrieveKind)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	var (
		retrieval *domain.Retrieval
		answer    *domain.Answer
	)
	if retrieveAnswer {
		answer, err = answerer.Answer(ctx, query, filter)
		if err != nil {
			return fmt.Errorf("answer failed: %w", err)
		}
		retrieval = answer.Retrieval
	} else {
		retrieval, err = retriever.Retrieve(ctx, query, filter)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
	}
	if retrieval == nil {
		retrieval = &domain.Retrieval{Verdict: domain.VerdictUngrounded}
	}

	items := evidenceItems(retrieval, retrieveLimit)
	if retrieveJSON {
		return outputRetrievalJSON(cmd, query, retrieval, items, answer)
	}
	outputRetrievalText(cmd, retrieval, items, answer)
	return nil
}

func evidenceItems(r *domain.Retrieval, limit int) []domain.ScoredChunk {
	if !r.Grounded() {
		return nil
	}
	items := r.Evidence.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func outputRetrievalJSON(
	cmd *cobra.Command,
	query string,
	r *domain.Retrieval,
	items []domain.ScoredChunk,
	answer *domain.Answer,
) error {
	out := retrievalJSON{
		Query:     query,
		Verdict:   string(r.Verdict),
		TopScore:  r.TopScore,
		Threshold: retriever.Threshold(),
		Evidence:  make([]evidenceJSON, 0, len(items)),
	}
	for i := range items {
		c := &items[i].Chunk
		out.Evidence = append(out.Evidence, evidenceJSON{
			Citation:     c.Citation,
			Title:        items[i].DocumentTitle,
			URL:          c.URL,
			Score:        items[i].Score,
			Role:         string(c.Role),
			Kind:         string(c.Kind),
			Jurisdiction: c.Jurisdiction,
			LegalDomain:  string(c.LegalDomain),
			ArticleRefs:  c.ArticleRefs,
			Text:         c.Text,
		})
	}
	if answer != nil {
		out.Answer = &answerJSON{
			Text:      answer.Text,
			Refused:   answer.Refused,
			Flagged:   answer.Flagged,
			Citations: answer.Citations,
		}
		if out.Answer.Citations == nil {
			out.Answer.Citations = []domain.Citation{}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrievalText(cmd *cobra.Command, r *domain.Retrieval, items []domain.ScoredChunk, answer *domain.Answer) {
	if !r.Grounded() {
		cmd.Printf("No reliable source found (best score %.2f, threshold %.2f).\n", r.TopScore, retriever.Threshold())
		if answer != nil {
			cmd.Println()
			cmd.Println(answer.Text)
		}
		return
	}

	cmd.Printf("Evidence (%d passages, threshold %.2f):\n", len(r.Evidence.Items), r.Evidence.Threshold)
	cmd.Println()
	for i := range items {
		c := &items[i].Chunk
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.Citation, items[i].Score)
		if items[i].DocumentTitle != "" {
			cmd.Printf("      %s\n", items[i].DocumentTitle)
		}
		cmd.Printf("      %s, %s, %s\n", c.Role.Label(), c.Kind, c.Jurisdiction)
		cmd.Printf("      %s\n", snippet(c.Text, snippetLength))
		if c.URL != "" {
			cmd.Printf("      %s\n", c.URL)
		}
		cmd.Println()
	}

	if answer == nil {
		return
	}
	cmd.Println("Answer:")
	cmd.Println()
	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			mark := "ok"
			if !c.Verified {
				mark = "UNVERIFIED"
			}
			cmd.Printf("  - %s [%s]\n", c.Reference, mark)
		}
	}
	switch {
	case answer.Flagged && len(answer.Citations) == 0:
		cmd.Println()
		cmd.Println("Warning: the answer cites no sources.")
	case answer.Flagged:
		cmd.Println()
		cmd.Println("Warning: the answer cites sources that are not part of the evidence.")
	}
}

// snippet collapses whitespace and truncates s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
