package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pcred/internal/infra/ratelimit"
	"pcred/internal/usecase"
)

// Server wires the HTTP surface to the redemption use case. Routing stays
// glue: every invariant lives behind the use case.
type Server struct {
	uc         *usecase.RedemptionUseCase
	gate       *Gate
	limiter    ratelimit.Limiter
	openRedeem bool
	log        *zerolog.Logger
}

func NewServer(
	uc *usecase.RedemptionUseCase,
	gate *Gate,
	limiter ratelimit.Limiter,
	openRedeem bool,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{uc: uc, gate: gate, limiter: limiter, openRedeem: openRedeem, log: &l}
}

// Routes builds the router. /redeem sits behind the gate unless
// auth.open_redeem is set; the other privileged routes always do.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(traceID, requestLog(s.log), recoverer(s.log), rateLimit(s.limiter, s.log))

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/check_key", s.handleCheck)

	r.Group(func(pr chi.Router) {
		pr.Use(s.gate.Require)
		pr.Post("/generate_code", s.handleGenerate)
		pr.Post("/create_code", s.handleCreate)
		if !s.openRedeem {
			pr.Post("/redeem", s.handleRedeem)
		}
	})
	if s.openRedeem {
		r.Post("/redeem", s.handleRedeem)
	}

	return r
}
