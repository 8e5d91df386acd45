package server

import (
	"net/http"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
)

// handleHealth responds to GET/HEAD /api/health with {"status":"ok"}.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion responds to GET/HEAD /api/version with build info.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handlePortfolioBalance serves GET /api/portfolio/balance?by=<view>.
// Views: asset_class (default), platform, currency, total, monthly_change.
func (s *Server) handlePortfolioBalance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	by := r.URL.Query().Get("by")
	if by == "" {
		by = "asset_class"
	}

	ctx := r.Context()
	switch by {
	case "asset_class":
		m, err := s.portfolio.BalanceByAssetClass(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build asset class view")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, tableResponse(m))
	case "platform":
		m, err := s.portfolio.BalanceByPlatform(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build platform view")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, tableResponse(m))
	case "currency":
		m, err := s.portfolio.BalanceByCurrency(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build currency view")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, tableResponse(m))
	case "total":
		series, err := s.portfolio.BalanceTotal(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build total view")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, seriesResponse(series))
	case "monthly_change":
		series, err := s.portfolio.MonthlyChange(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build monthly change view")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, seriesResponseSkipMissing(series))
	default:
		WriteError(w, http.StatusBadRequest, "Unknown view: "+by)
	}
}

// handleRefresh serves POST /api/refresh: runs ingestion and then brings the
// market data up to date. ?incremental=true limits ingestion to the current
// year.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	opts := interfaces.IngestOptions{
		Incremental: r.URL.Query().Get("incremental") == "true",
	}

	result, err := s.ingest.Run(ctx, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("Ingest run failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.market.RefreshFX(ctx); err != nil {
		s.logger.Error().Err(err).Msg("FX refresh failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.market.RefreshPrices(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Price refresh failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
