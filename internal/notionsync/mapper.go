package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the Notion transactions database.
const (
	PropDescription   = "Description"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropDisplayAmount = "Amount (IDR)"
	PropType          = "Type"
	PropCategory      = "Category"
	PropTransactionID = "Transaction ID"
	PropUser          = "User"
)

// TransactionToNotionProperties converts a ledger transaction to Notion properties.
// Expenses are exported as negative numbers so a Notion sum gives the balance.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	signed := tx.Amount
	if tx.Type == domain.Expense {
		signed = signed.Neg()
	}

	return notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(tx.Description),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDate(tx.Date),
			},
		},
		PropAmount: notionapi.NumberProperty{
			Number: signed.InexactFloat64(),
		},
		PropDisplayAmount: notionapi.RichTextProperty{
			RichText: richText(amount.Format(tx.Amount)),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Type)},
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		PropUser: notionapi.RichTextProperty{
			RichText: richText(tx.UserID),
		},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func notionDate(d civil.Date) *notionapi.Date {
	nd := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return &nd
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	return extractRichText(page, PropTransactionID)
}

func extractRichText(page notionapi.Page, name string) string {
	if prop, ok := page.Properties[name]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			if rt.RichText[0].PlainText != "" {
				return rt.RichText[0].PlainText
			}
			if rt.RichText[0].Text != nil {
				return rt.RichText[0].Text.Content
			}
		}
	}
	return ""
}

// extractDate returns the page's Date property. ok is false when it is missing.
func extractDate(page notionapi.Page) (civil.Date, bool) {
	prop, ok := page.Properties[PropDate]
	if !ok {
		return civil.Date{}, false
	}
	dp, ok := prop.(*notionapi.DateProperty)
	if !ok || dp.Date == nil || dp.Date.Start == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(time.Time(*dp.Date.Start)), true
}
