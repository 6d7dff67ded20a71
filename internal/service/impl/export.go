package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Resumo"

func (s *AppService) ExportSummary(ctx context.Context, caller domain.User, matricula string, month time.Time) ([]byte, error) {
	summary, err := s.MonthlySummary(ctx, caller, matricula, month)
	if err != nil {
		return nil, err
	}
	return summaryWorkbook(summary)
}

// summaryWorkbook writes one row per report followed by the month's totals.
func summaryWorkbook(summary domain.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Matrícula", summary.Matricula, "Mês", summary.Month.Format("01/2006")},
		{},
		{"Data do caixa", "Valor folha", "Valor dinheiro", "Sobra/Falta", "Observação"},
	}
	for _, r := range summary.Reports {
		rows = append(rows, []any{
			r.Day.Format("02/01/2006"),
			r.Sheet.InexactFloat64(),
			r.Cash.InexactFloat64(),
			r.Balance.InexactFloat64(),
			r.Note,
		})
	}
	rows = append(rows,
		[]any{},
		[]any{"Total folha", summary.TotalSheet.InexactFloat64()},
		[]any{"Saldo", summary.Balance.InexactFloat64()},
		[]any{"Situação", summary.Situation},
	)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err = f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
