// Package api assembles the HTTP routes and middleware of the dompet API server.
package api

import (
	"net/http"
	"strings"

	"github.com/dvloznov/dompet/internal/api/handlers"
	"github.com/dvloznov/dompet/internal/api/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Scans        *handlers.ScansHandler
	Amounts      *handlers.AmountsHandler
	Categories   *handlers.CategoriesHandler
	Transactions *handlers.TransactionsHandler
	Jobs         *handlers.JobsHandler
}

// methods dispatches on the request method and answers 405 for anything else.
func methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byMethod[r.Method]; ok {
			h(w, r)
			return
		}
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// NewRouter builds the API handler with middleware applied.
func NewRouter(h Handlers, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Receipt scanning
	mux.HandleFunc("/api/scans", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Scans.Scan,
	}))
	mux.HandleFunc("/api/reconcile", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Scans.Reconcile,
	}))
	mux.HandleFunc("/api/amounts/normalize", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Amounts.Normalize,
	}))

	// Categories endpoints
	mux.HandleFunc("/api/categories", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Categories.GetCategories,
		http.MethodPut: h.Categories.PutCategories,
	}))

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", methods(map[string]http.HandlerFunc{
		http.MethodGet:  h.Transactions.ListTransactions,
		http.MethodPost: h.Transactions.CreateTransaction,
	}))
	mux.HandleFunc("/api/summary", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Transactions.Summary,
	}))

	// Advice jobs
	mux.HandleFunc("/api/advice", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Jobs.RequestAdvice,
	}))
	mux.HandleFunc("/api/jobs", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Jobs.ListJobs,
	}))
	mux.HandleFunc("/api/jobs/", methods(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			h.Jobs.GetJob(w, r, jobID)
		},
	}))

	// Health check endpoint
	mux.HandleFunc("/health", handlers.Health)

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth("/health")(mux),
				),
			),
		),
	)
}
