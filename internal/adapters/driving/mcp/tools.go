package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// ungroundedMessage tells the client there is nothing to cite.
const ungroundedMessage = "No reliable source found for this query. Do not answer from general knowledge."

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query        string `json:"query" jsonschema:"the legal question or search text"`
	Jurisdiction string `json:"jurisdiction,omitempty" jsonschema:"CH for federal law or a canton code such as VD or GE"`
	LegalDomain  string `json:"legal_domain,omitempty" jsonschema:"area of law such as droit_civil, droit_bail or droit_penal"`
	Kind         string `json:"kind,omitempty" jsonschema:"statute or decision"`
	TopK         int    `json:"top_k,omitempty" jsonschema:"maximum number of evidence items to return"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Verdict   string           `json:"verdict"`
	TopScore  float64          `json:"top_score"`
	Threshold float64          `json:"threshold"`
	Evidence  []EvidenceOutput `json:"evidence"`
	Count     int              `json:"count"`
	Message   string           `json:"message,omitempty"`
}

// EvidenceOutput is one chunk of the evidence bundle.
type EvidenceOutput struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	Citation     string  `json:"citation"`
	Title        string  `json:"title,omitempty"`
	URL          string  `json:"url,omitempty"`
	Kind         string  `json:"kind"`
	Role         string  `json:"role"`
	Jurisdiction string  `json:"jurisdiction"`
	LegalDomain  string  `json:"legal_domain"`
	Score        float64 `json:"score"`
	Text         string  `json:"text"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query        string `json:"query" jsonschema:"the legal question"`
	Jurisdiction string `json:"jurisdiction,omitempty" jsonschema:"CH for federal law or a canton code"`
	LegalDomain  string `json:"legal_domain,omitempty" jsonschema:"area of law"`
	Kind         string `json:"kind,omitempty" jsonschema:"statute or decision"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	Text      string            `json:"text"`
	Refused   bool              `json:"refused"`
	Flagged   bool              `json:"flagged"`
	Citations []domain.Citation `json:"citations"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "retrieve",
		Description: "Retrieve Swiss legal evidence (federal and cantonal statutes, court decisions) " +
			"for a question. An ungrounded verdict means no reliable source exists.",
	}, s.handleRetrieve)

	if s.ports.Answerer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "answer",
			Description: "Answer a Swiss legal question from retrieved evidence, with verified citations",
		}, s.handleAnswer)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	filter, err := domain.ParseRetrievalFilter(input.Jurisdiction, input.LegalDomain, input.Kind)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	retrieval, err := s.ports.Retriever.Retrieve(ctx, input.Query, filter)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Verdict:   string(retrieval.Verdict),
		TopScore:  retrieval.TopScore,
		Threshold: s.ports.Retriever.Threshold(),
		Evidence:  []EvidenceOutput{},
	}
	if !retrieval.Grounded() {
		output.Message = ungroundedMessage
		return nil, output, nil
	}

	items := retrieval.Evidence.Items
	if input.TopK > 0 && input.TopK < len(items) {
		items = items[:input.TopK]
	}
	for i := range items {
		output.Evidence = append(output.Evidence, evidenceOutput(&items[i]))
	}
	output.Count = len(output.Evidence)

	return nil, output, nil
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	filter, err := domain.ParseRetrievalFilter(input.Jurisdiction, input.LegalDomain, input.Kind)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	answer, err := s.ports.Answerer.Answer(ctx, input.Query, filter)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	citations := answer.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	return nil, AnswerOutput{
		Text:      answer.Text,
		Refused:   answer.Refused,
		Flagged:   answer.Flagged,
		Citations: citations,
	}, nil
}

func evidenceOutput(item *domain.ScoredChunk) EvidenceOutput {
	c := &item.Chunk
	return EvidenceOutput{
		ChunkID:      c.ID,
		DocumentID:   c.DocumentID,
		Citation:     c.Citation,
		Title:        item.DocumentTitle,
		URL:          c.URL,
		Kind:         string(c.Kind),
		Role:         string(c.Role),
		Jurisdiction: c.Jurisdiction,
		LegalDomain:  string(c.LegalDomain),
		Score:        item.Score,
		Text:         c.Text,
	}
}
