package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type Handler struct {
	service *Service
	members Members
	rounds  Rounds
}

func NewHandler(service *Service, members Members, rounds Rounds) *Handler {
	return &Handler{
		service: service,
		members: members,
		rounds:  rounds,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth", h.authenticate)

	r.Group(func(r chi.Router) {
		r.Use(h.requireToken)
		r.Get("/peers", h.getPeers)
		r.Get("/report", h.getReport)
	})
}

// requireToken rejects requests that do not carry a valid bearer token.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !h.service.ValidToken(token) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: "missing or invalid token"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := render.DecodeJSON(r.Body, &creds); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})

		return
	}

	token, err := h.service.Authenticate(creds.Username, creds.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})

		return
	}

	render.JSON(w, r, TokenResponse{Token: token})
}

func (h *Handler) getPeers(w http.ResponseWriter, r *http.Request) {
	peers := h.members.Peers()
	resp := make([]Peer, len(peers))

	for i, p := range peers {
		resp[i] = Peer{
			ID:            uint32(p.ID),
			RPCAddr:       p.RPCAddr,
			HeartbeatAddr: p.HeartbeatAddr,
			Status:        p.Status.String(),
			Failures:      p.Failures,
		}
	}

	render.JSON(w, r, GetPeersResponse{Peers: resp})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	round := h.rounds.LastRound()
	resp := make([]Snapshot, len(round))

	for i, s := range round {
		resp[i] = Snapshot{
			NodeID:      uint32(s.NodeID),
			Clock:       s.Clock,
			CPUPercent:  s.CPUPercent,
			MemPercent:  s.MemPercent,
			MemTotalGB:  s.MemTotalGB,
			LoadAvg:     s.LoadAvg,
			Processors:  s.Processors,
			UptimeSec:   int64(s.Uptime.Seconds()),
			CollectedAt: s.CollectedAt,
		}
	}

	render.JSON(w, r, GetReportResponse{
		Coordinator: uint32(h.members.SelfID()),
		Snapshots:   resp,
	})
}
