package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is a cash-difference report ("relatório de diferenças") for one cashier on one business day.
type Report struct {
	ID        string          `json:"id"`
	Matricula string          `json:"matricula"`
	Day       time.Time       `json:"dataCaixa"`
	Sheet     decimal.Decimal `json:"valorFolha"`
	Cash      decimal.Decimal `json:"valorDinheiro"`
	Balance   decimal.Decimal `json:"sobraFalta"`
	Note      string          `json:"observacao"`
	Created   time.Time       `json:"criadoEm"`
	CreatedBy string          `json:"createdBy"`
}

// Situation values of a monthly summary.
const (
	Surplus  = "Sobra"
	Shortage = "Falta"
	Even     = "Zerado"
)

// Summary aggregates a registration number's reports over one month.
type Summary struct {
	Matricula  string          `json:"matricula"`
	Month      time.Time       `json:"mes"`
	TotalSheet decimal.Decimal `json:"totalFolha"`
	Balance    decimal.Decimal `json:"saldo"`
	Situation  string          `json:"situacao"`
	Reports    []Report        `json:"relatorios"`
}

// Situation classifies a balance.
func Situation(balance decimal.Decimal) string {
	switch balance.Sign() {
	case 1:
		return Surplus
	case -1:
		return Shortage
	default:
		return Even
	}
}

// DayOff is a scheduled day off ("folga").
type DayOff struct {
	ID        string    `json:"id"`
	Matricula string    `json:"matricula"`
	Kind      string    `json:"tipo"`
	Period    string    `json:"periodo"`
	Day       time.Time `json:"dia"`
	CreatedBy string    `json:"criadoPor"`
}

// Schedule is an uploaded schedule file ("escala"). Path is the key of the file in the blob store.
type Schedule struct {
	ID         string    `json:"id"`
	Title      string    `json:"titulo"`
	Filename   string    `json:"arquivo"`
	MimeType   string    `json:"tipo"`
	SizeBytes  int64     `json:"tamanho"`
	Path       string    `json:"-"`
	URL        string    `json:"url,omitempty"`
	Matricula  string    `json:"matricula"`
	Created    time.Time `json:"criadoEm"`
	UploadedBy string    `json:"enviadoPor"`
}
