package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"paytrack/internal/auth"
	"paytrack/internal/core"
	"paytrack/internal/period"
	"paytrack/internal/reports"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var in reportInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	typ, err := reports.ParseType(in.ReportType)
	if err != nil {
		verr.Add("reportType", "reportType must be schedule, expenses or combined")
	}
	format, err := reports.ParseFormat(in.Format)
	if err != nil {
		verr.Add("format", "format must be csv, xlsx or pdf")
	}
	kind, err := period.ParseKind(in.Period)
	if err != nil {
		verr.Add("period", "period must be week, month, custom or last4weeks")
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	rng, err := s.deps.Resolver.Resolve(period.Request{Kind: kind, StartDate: in.StartDate, EndDate: in.EndDate})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeReport(w, r, typ, rng, format)
}

func (s *Server) handleQuickReport(w http.ResponseWriter, r *http.Request) {
	preset, err := reports.LookupPreset(chi.URLParam(r, "preset"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rng, err := s.deps.Resolver.Resolve(period.Request{Kind: preset.Period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeReport(w, r, preset.Type, rng, preset.Format)
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, t reports.Type, rng period.Range, f reports.Format) {
	rep, err := s.deps.Reports.Generate(r.Context(), auth.OwnerFrom(r.Context()), t, rng, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Attachment(rep.Filename, rep.ContentType, rep.Body).Write(w)
}
