package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/internal/service"
)

type callerKey struct{}

func getCaller(ctx context.Context) domain.User {
	u, _ := ctx.Value(callerKey{}).(domain.User)
	return u
}

// BearerMiddleware authenticates the child applications' requests with the token the shell pushed into them,
// and loads the caller's user record.
func BearerMiddleware(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, identity.ErrUnauthenticated)
				return
			}
			id, err := h.identity.Verify(token)
			if err != nil {
				writeError(w, err)
				return
			}
			caller, err := h.service.Caller(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeError reports err as {"error": message}. Internal errors are logged and their message is not exposed.
func writeError(w http.ResponseWriter, err error) {
	code := GetCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		msg = http.StatusText(code)
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

// parseMonth reads a YYYY-MM month. An empty value is the current month.
func parseMonth(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	m, err := time.ParseInLocation("2006-01", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: mês %q deve estar no formato AAAA-MM", service.ErrInvalidInput, value)
	}
	return m, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: corpo da requisição inválido", service.ErrInvalidInput)
	}
	return nil
}

func Me(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, getCaller(r.Context()))
	}
}

func Matriculas(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := getCaller(r.Context())
		if !caller.Admin {
			handles := []string{}
			if caller.Matricula != "" {
				handles = append(handles, caller.Matricula)
			}
			writeJSON(w, http.StatusOK, handles)
			return
		}

		handles, err := h.service.Matriculas(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, handles)
	}
}

// ListReports lists reports, narrowed by "data" (one day) or "mes" (one month) when given.
func ListReports(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := getCaller(ctx)
		q := r.URL.Query()

		var (
			reports []domain.Report
			err     error
		)
		switch {
		case q.Get("data") != "":
			day, pErr := time.ParseInLocation("2006-01-02", q.Get("data"), h.now().Location())
			if pErr != nil {
				writeError(w, fmt.Errorf("%w: data %q deve estar no formato AAAA-MM-DD", service.ErrInvalidInput, q.Get("data")))
				return
			}
			reports, err = h.service.ReportsByDate(ctx, caller, day)
		case q.Get("mes") != "":
			month, pErr := parseMonth(q.Get("mes"), h.now())
			if pErr != nil {
				writeError(w, pErr)
				return
			}
			var summary domain.Summary
			summary, err = h.service.MonthlySummary(ctx, caller, q.Get("matricula"), month)
			reports = summary.Reports
		default:
			reports, err = h.service.ListReports(ctx, caller, q.Get("matricula"))
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if reports == nil {
			reports = []domain.Report{}
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

type reportForm struct {
	Matricula string `json:"matricula"`
	Day       string `json:"dataCaixa"`
	Sheet     string `json:"valorFolha"`
	Cash      string `json:"valorDinheiro"`
	Note      string `json:"observacao"`
}

func CreateReport(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form reportForm
		if err := decode(r, &form); err != nil {
			writeError(w, err)
			return
		}
		report, err := h.service.CreateReport(r.Context(), getCaller(r.Context()), service.ReportInput{
			Matricula: form.Matricula,
			Day:       form.Day,
			Sheet:     form.Sheet,
			Cash:      form.Cash,
			Note:      form.Note,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func DeleteReport(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.DeleteReport(r.Context(), getCaller(r.Context()), chi.URLParam(r, "id"),
			r.URL.Query().Get("confirm") == "true")
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func MonthlySummary(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := parseMonth(r.URL.Query().Get("mes"), h.now())
		if err != nil {
			writeError(w, err)
			return
		}
		summary, err := h.service.MonthlySummary(r.Context(), getCaller(r.Context()), r.URL.Query().Get("matricula"), month)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func ExportSummary(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := getCaller(r.Context())
		month, err := parseMonth(r.URL.Query().Get("mes"), h.now())
		if err != nil {
			writeError(w, err)
			return
		}
		matricula := r.URL.Query().Get("matricula")
		book, err := h.service.ExportSummary(r.Context(), caller, matricula, month)
		if err != nil {
			writeError(w, err)
			return
		}
		if matricula == "" {
			matricula = caller.Matricula
		}
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="resumo-%s-%s.xlsx"`, matricula, month.Format("2006-01")))
		if _, err = w.Write(book); err != nil {
			log.Warn().Err(err).Msg("failed to send summary workbook")
		}
	}
}

// ListDaysOff returns the month's days off together with the month laid out as a calendar.
func ListDaysOff(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := parseMonth(r.URL.Query().Get("mes"), h.now())
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err := h.service.ListDaysOff(r.Context(), getCaller(r.Context()), month)
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []domain.DayOff{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"folgas": entries,
			"dias":   service.Calendar(month.Year(), month.Month(), entries),
		})
	}
}

type dayOffForm struct {
	Matricula string `json:"matricula"`
	Kind      string `json:"tipo"`
	Period    string `json:"periodo"`
	Day       string `json:"dia"`
}

func CreateDayOff(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form dayOffForm
		if err := decode(r, &form); err != nil {
			writeError(w, err)
			return
		}
		entry, err := h.service.CreateDayOff(r.Context(), getCaller(r.Context()), service.DayOffInput{
			Matricula: form.Matricula,
			Kind:      form.Kind,
			Period:    form.Period,
			Day:       form.Day,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func ListSchedules(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schedules, err := h.service.ListSchedules(r.Context(), getCaller(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if schedules == nil {
			schedules = []domain.Schedule{}
		}
		writeJSON(w, http.StatusOK, schedules)
	}
}

// UploadSchedule stores the "arquivo" part of a multipart form as a new schedule.
func UploadSchedule(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		if err := r.ParseMultipartForm(MaxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "arquivo muito grande"})
				return
			}
			writeError(w, fmt.Errorf("%w: formulário inválido", service.ErrInvalidInput))
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				log.Warn().Err(err).Msg("failed to remove temporary upload files")
			}
		}()

		file, header, err := r.FormFile("arquivo")
		if err != nil {
			writeError(w, fmt.Errorf("%w: arquivo ausente", service.ErrInvalidInput))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			sniff := make([]byte, 512)
			n, _ := io.ReadFull(file, sniff)
			mimeType = http.DetectContentType(sniff[:n])
			if _, err = file.Seek(0, io.SeekStart); err != nil {
				writeError(w, err)
				return
			}
		}

		schedule, err := h.service.UploadSchedule(r.Context(), getCaller(r.Context()), service.ScheduleInput{
			Title:     r.FormValue("titulo"),
			Matricula: r.FormValue("matricula"),
			Filename:  path.Base(header.Filename),
			MimeType:  mimeType,
		}, file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, schedule)
	}
}

func DeleteSchedule(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.DeleteSchedule(r.Context(), getCaller(r.Context()), chi.URLParam(r, "id"),
			r.URL.Query().Get("confirm") == "true")
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
