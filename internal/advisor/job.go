package advisor

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/jobs"
	"github.com/dvloznov/dompet/internal/ledger"
)

// Summarizer loads the transactions of a period. *ledger.Service implements it.
type Summarizer interface {
	Summarize(ctx context.Context, userID string, from, to civil.Date) (*ledger.Summary, []*domain.Transaction, error)
}

// JobHandler returns a jobs.JobHandler that generates advice for the job's period
// and stores it in job.Result.
func (a *Advisor) JobHandler(ledgerSvc Summarizer) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.AdviceJob) error {
		sum, txs, err := ledgerSvc.Summarize(ctx, job.UserID, job.From, job.To)
		if err != nil {
			return fmt.Errorf("advice job %s: %w", job.JobID, err)
		}

		advice, err := a.Advise(ctx, sum, txs)
		if err != nil {
			return fmt.Errorf("advice job %s: %w", job.JobID, err)
		}

		job.Result = advice
		return nil
	}
}
