package notionsync

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// DeletePage archives a Notion page.
	DeletePage(ctx context.Context, pageID string) error
}

// TransactionLister reads ledger transactions. *ledger.Service implements it.
type TransactionLister interface {
	List(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error)
}
