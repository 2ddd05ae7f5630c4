package handlers

import (
	"chatapp-client/internal/debounce"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/pagination"
	"chatapp-client/internal/send"
	"chatapp-client/internal/session"
	"chatapp-client/internal/store"
	"chatapp-client/internal/unread"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the parts of the engine the presentation API reads from and acts through.
type Deps struct {
	Store      *store.Store
	Pagination *pagination.Controller
	Send       *send.Pipeline
	Unread     *unread.Tracker
	Collapser  *debounce.SidebarCollapser
	Hub        *hub.Hub
	// Signer is nil when requests are not authenticated
	Signer *session.Signer
	UserID string
}

type Handlers struct {
	Deps
	sugar *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, deps Deps) *Handlers {
	return &Handlers{Deps: deps, sugar: sugar}
}

func (h *Handlers) Router(printHttpRequests bool) http.Handler {
	r := chi.NewRouter()
	if printHttpRequests {
		r.Use(middleware.Logger)
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Use(h.UserVerifier)
			r.Get("/isLoggedIn", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})

		api.Group(func(r chi.Router) {
			r.Use(h.UserVerifier)

			r.Get("/guilds", h.GetGuildList)
			r.Post("/guild/create", h.CreateGuild)
			r.Post("/guild/rename", h.RenameGuild)
			r.Post("/guild/delete", h.DeleteGuild)

			r.Get("/channels", h.GetChannelList)
			r.Post("/channel/create", h.CreateChannel)
			r.Post("/channel/rename", h.RenameChannel)
			r.Post("/channel/delete", h.DeleteChannel)
			r.Post("/channel/read", h.MarkChannelRead)
			r.Post("/channel/visit", h.VisitChannel)

			r.Get("/timeline", h.GetTimeline)
			r.Post("/message/create", h.CreateMessage)
			r.Post("/message/edit", h.EditMessage)
			r.Post("/message/delete", h.DeleteMessage)
			r.Post("/message/loadOlder", h.LoadOlderMessages)

			r.Get("/members", h.GetMemberList)
			r.Get("/unread", h.GetUnread)

			r.Get("/preferences", h.GetPreferences)
			r.Post("/preferences", h.UpdatePreferences)
			r.Post("/layout/resize", h.Resize)
		})
	})

	r.With(h.UserVerifier).Get("/ws", h.HandleWebSocket)

	return r
}
