package fsdb

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sidereusnuntius/portal/internal/domain"
)

// Money is stored as a number, like the records written by the older browser screens.
type reportDoc struct {
	Matricula string    `firestore:"matricula"`
	Day       time.Time `firestore:"dataCaixa"`
	Sheet     float64   `firestore:"valorFolha"`
	Cash      float64   `firestore:"valorDinheiro"`
	Balance   float64   `firestore:"sobraFalta"`
	Note      string    `firestore:"observacao"`
	Created   time.Time `firestore:"criadoEm"`
	CreatedBy string    `firestore:"createdBy"`
}

func newReportDoc(r domain.Report) reportDoc {
	return reportDoc{
		Matricula: r.Matricula,
		Day:       r.Day,
		Sheet:     r.Sheet.InexactFloat64(),
		Cash:      r.Cash.InexactFloat64(),
		Balance:   r.Balance.InexactFloat64(),
		Note:      r.Note,
		Created:   r.Created,
		CreatedBy: r.CreatedBy,
	}
}

func (d reportDoc) domain(id string) domain.Report {
	return domain.Report{
		ID:        id,
		Matricula: d.Matricula,
		Day:       d.Day.UTC(),
		Sheet:     decimal.NewFromFloat(d.Sheet),
		Cash:      decimal.NewFromFloat(d.Cash),
		Balance:   decimal.NewFromFloat(d.Balance),
		Note:      d.Note,
		Created:   d.Created.UTC(),
		CreatedBy: d.CreatedBy,
	}
}

type dayOffDoc struct {
	Matricula string    `firestore:"matricula"`
	Kind      string    `firestore:"tipo"`
	Period    string    `firestore:"periodo"`
	Day       time.Time `firestore:"dia"`
	CreatedBy string    `firestore:"criadoPor"`
}

type scheduleDoc struct {
	Title      string    `firestore:"titulo"`
	Filename   string    `firestore:"arquivo"`
	MimeType   string    `firestore:"tipo"`
	SizeBytes  int64     `firestore:"tamanho"`
	Path       string    `firestore:"caminho"`
	Matricula  string    `firestore:"matricula"`
	Created    time.Time `firestore:"criadoEm"`
	UploadedBy string    `firestore:"enviadoPor"`
}

func (d scheduleDoc) domain(id string) domain.Schedule {
	return domain.Schedule{
		ID:         id,
		Title:      d.Title,
		Filename:   d.Filename,
		MimeType:   d.MimeType,
		SizeBytes:  d.SizeBytes,
		Path:       d.Path,
		Matricula:  d.Matricula,
		Created:    d.Created.UTC(),
		UploadedBy: d.UploadedBy,
	}
}
