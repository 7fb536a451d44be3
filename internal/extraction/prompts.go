package extraction

import (
	"strings"
	"time"

	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"google.golang.org/genai"
)

// buildReceiptPrompt constructs the instruction sent with the receipt photo.
// It lists the user's categories per type and the date to use when none is printed.
func buildReceiptPrompt(reg *categories.Registry, today time.Time) string {
	var b strings.Builder

	b.WriteString("You are an expert financial assistant that reads receipts.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract the transaction shown in the attached receipt photo.\n")
	b.WriteString("- Output STRICT JSON only: a single object, no comments, no extra text.\n\n")

	b.WriteString("The object must have these fields:\n")
	b.WriteString("- \"amount\": number, the total amount paid, always positive, without currency symbols\n")
	b.WriteString("- \"category\": string, exactly one of the categories listed below\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string, a short description such as the merchant name\n")
	b.WriteString("- \"type\": string, \"expense\" or \"income\"\n\n")

	b.WriteString("Use ONLY the following categories:\n\n")
	for _, t := range domain.Types {
		b.WriteString(string(t) + ":\n")
		for _, label := range reg.Options(t) {
			b.WriteString("  - " + label + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("1. Category must be EXACTLY one of the labels above (case-sensitive) and belong to the chosen type.\n")
	b.WriteString("2. If you are unsure of the category, use \"" + categories.Fallback + "\".\n")
	b.WriteString("3. Receipts are almost always purchases: use \"expense\" unless the document clearly shows money received.\n")
	b.WriteString("4. If no date is visible, use today's date: " + today.Format("2006-01-02") + ".\n")
	b.WriteString("5. Use the grand total (after tax and discounts), not a subtotal or a line item.\n\n")

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// receiptSchema is the response schema for one extraction. Category is constrained to the
// union of the user's options; per-type membership is enforced after the call.
func receiptSchema(reg *categories.Registry) *genai.Schema {
	types := make([]string, 0, len(domain.Types))
	for _, t := range domain.Types {
		types = append(types, string(t))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"amount": {
				Type:        genai.TypeNumber,
				Description: "Total amount paid, positive, without currency symbols.",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "One of the user's categories for the chosen type.",
				Enum:        reg.All(),
			},
			"date": {
				Type:        genai.TypeString,
				Description: "Transaction date as YYYY-MM-DD.",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "Short description of the purchase, such as the merchant name.",
			},
			"type": {
				Type: genai.TypeString,
				Enum: types,
			},
		},
		Required:         []string{"amount", "category", "date", "description", "type"},
		PropertyOrdering: []string{"amount", "category", "date", "description", "type"},
	}
}
