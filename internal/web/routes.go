package web

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Mount(r chi.Router) {
	r.Use(middleware.Recoverer, FrameSecurity)
	if h.Config.Debug {
		r.Use(RequestLogger)
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(h))

		r.Get(LoginRoute, GetLogin(h))
		r.Post(LoginRoute, Login(h))
		r.Get(SignUpRoute, GetSignup(h))
		r.Post(SignUpRoute, SignUp(h))
		r.Get("/logout", Logout(h))

		r.Group(func(r chi.Router) {
			r.Use(AuthenticatedMiddleware(h))

			r.Get("/", ShellPage(h))
			r.Post("/password", ChangePassword(h))
			r.Route("/shell/{id}", func(r chi.Router) {
				r.Get("/events", ShellEvents(h))
				r.Post("/show/{route}", ShowRoute(h))
				r.Post("/loaded/{route}", FrameLoaded(h))
				r.Post("/ack/{route}", FrameAck(h))
				r.Post("/close", CloseShell(h))
			})
			r.Get("/f/*", GetFile(h))
		})
	})

	r.Get("/apps/{app}/", AppPage(h))

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerMiddleware(h))

		r.Get("/me", Me(h))
		r.Get("/matriculas", Matriculas(h))
		r.Route("/relatorios", func(r chi.Router) {
			r.Get("/", ListReports(h))
			r.Post("/", CreateReport(h))
			r.Get("/resumo", MonthlySummary(h))
			r.Get("/resumo.xlsx", ExportSummary(h))
			r.Delete("/{id}", DeleteReport(h))
		})
		r.Route("/folgas", func(r chi.Router) {
			r.Get("/", ListDaysOff(h))
			r.Post("/", CreateDayOff(h))
		})
		r.Route("/escalas", func(r chi.Router) {
			r.Get("/", ListSchedules(h))
			r.Post("/", UploadSchedule(h))
			r.Delete("/{id}", DeleteSchedule(h))
		})
	})

	h.MountStaticRoutes(r)
}

func (h *Handler) MountStaticRoutes(r chi.Router) {
	fileServer := http.FileServer(http.FS(os.DirFS(h.Config.StaticDir)))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
}
