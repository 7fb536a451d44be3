// Package advisor generates a summary of a period's finances and advice on improving them.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/gemini"
	"github.com/dvloznov/dompet/internal/ledger"
	"github.com/dvloznov/dompet/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is the model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// maxPromptTransactions caps how many transactions are listed in the prompt.
const maxPromptTransactions = 200

// Advisor asks a model for financial advice.
type Advisor struct {
	models  gemini.ContentGenerator
	model   string
	timeout time.Duration
	now     func() time.Time
}

// New creates an Advisor. An empty model name selects DefaultModelName.
func New(models gemini.ContentGenerator, model string, timeout time.Duration) *Advisor {
	if model == "" {
		model = DefaultModelName
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Advisor{models: models, model: model, timeout: timeout, now: time.Now}
}

type adviceResponse struct {
	Summary  string `json:"summary"`
	Insights string `json:"insights"`
}

// Advise summarizes the period described by sum and txs and returns recommendations.
func (a *Advisor) Advise(ctx context.Context, sum *ledger.Summary, txs []*domain.Transaction) (*domain.Advice, error) {
	log := logger.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(buildAdvicePrompt(sum, txs), genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("You are a personal financial advisor. Be concise and practical.", genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {
					Type:        genai.TypeString,
					Description: "A concise summary of income and expenses for the period.",
				},
				"insights": {
					Type:        genai.TypeString,
					Description: "Personalized insights and recommendations on how to improve financial health.",
				},
			},
			Required: []string{"summary", "insights"},
		},
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("Advise: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Advise: empty response from model")
	}

	var out adviceResponse
	if err := json.Unmarshal([]byte(gemini.CleanJSON(rawText)), &out); err != nil {
		return nil, fmt.Errorf("Advise: unmarshal JSON: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" && strings.TrimSpace(out.Insights) == "" {
		return nil, fmt.Errorf("Advise: model returned no advice")
	}

	usage := gemini.UsageOf(resp)
	log.Info().
		Str("model", a.model).
		Int("transactions", len(txs)).
		Int32("prompt_tokens", usage.PromptTokens).
		Msg("Advice generated")

	return &domain.Advice{
		Summary:     out.Summary,
		Insights:    out.Insights,
		Income:      sum.Income,
		Expenses:    sum.Expenses,
		Model:       a.model,
		GeneratedAt: a.now().UTC(),
	}, nil
}

func buildAdvicePrompt(sum *ledger.Summary, txs []*domain.Transaction) string {
	var b strings.Builder

	b.WriteString("Analyze the user's income and spending for the period ")
	b.WriteString(sum.From.String() + " to " + sum.To.String() + ".\n")
	b.WriteString("First give a concise summary of total income and total expenses. ")
	b.WriteString("Then give personalized insights and recommendations on saving money.\n\n")

	b.WriteString("Total income: " + amount.Format(sum.Income) + "\n")
	b.WriteString("Total expenses: " + amount.Format(sum.Expenses) + "\n")
	b.WriteString("Balance: " + amount.Format(sum.Balance) + "\n\n")

	if len(sum.ByCategory) > 0 {
		b.WriteString("Expenses by category:\n")
		cats := make([]string, 0, len(sum.ByCategory))
		for c := range sum.ByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			b.WriteString("  - " + c + ": " + amount.Format(sum.ByCategory[c]) + "\n")
		}
		b.WriteString("\n")
	}

	if len(txs) == 0 {
		b.WriteString("There are no transactions in this period.\n")
		return b.String()
	}

	b.WriteString("Transactions:\n")
	for i, tx := range txs {
		if i == maxPromptTransactions {
			b.WriteString(fmt.Sprintf("  (%d more transactions omitted)\n", len(txs)-maxPromptTransactions))
			break
		}
		b.WriteString(fmt.Sprintf("  - Date: %s, Description: %s, Amount: %s, Type: %s, Category: %s\n",
			tx.Date, tx.Description, amount.Format(tx.Amount), tx.Type, tx.Category))
	}
	return b.String()
}
