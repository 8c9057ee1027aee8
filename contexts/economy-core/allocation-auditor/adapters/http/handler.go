package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"moneywave/contexts/economy-core/allocation-auditor/application"
	"moneywave/contexts/economy-core/allocation-auditor/domain/entities"
	httptransport "moneywave/contexts/economy-core/allocation-auditor/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) VerifyHandler(
	ctx context.Context,
	hourStart time.Time,
	domain string,
) (httptransport.AuditResponse, error) {
	report, err := h.Service.Verify(ctx, hourStart, domain)
	if err != nil {
		return httptransport.AuditResponse{}, err
	}
	status := "passed"
	if !report.Passed {
		status = "failed"
	}
	return httptransport.AuditResponse{
		Status: status,
		Report: toDTO(report),
	}, nil
}

func toDTO(report entities.AuditReport) httptransport.AuditReportDTO {
	checks := make([]httptransport.CategoryCheckDTO, 0, len(report.Checks))
	for _, check := range report.Checks {
		checks = append(checks, httptransport.CategoryCheckDTO{
			Category: check.Category,
			Expected: check.Expected.String(),
			Actual:   check.Actual.String(),
			Delta:    check.Delta.String(),
			Match:    check.Match,
		})
	}
	return httptransport.AuditReportDTO{
		HourStart:     report.HourStart.UTC().Format(time.RFC3339),
		Domain:        report.Domain,
		Checks:        checks,
		ExpectedTotal: report.ExpectedTotal.String(),
		ActualTotal:   report.ActualTotal.String(),
		Passed:        report.Passed,
	}
}
