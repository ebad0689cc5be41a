package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cryotank-sim/internal/boiloff"
	"cryotank-sim/internal/config"
	"cryotank-sim/internal/sim"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Sim *sim.Simulator
	Hub *Hub
	tpl *template.Template
	log *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

func NewServer(sim *sim.Simulator, hub *Hub) *Server {
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"rate": boiloff.FormatRate,
	}).ParseFS(content, "templates/index.html"))
	return &Server{Sim: sim, Hub: hub, tpl: tpl, log: slog.Default().With("component", "admin")}
}

// Handler returns the admin routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /vessel", s.handleVessel)
	mux.HandleFunc("GET /power", s.handlePower)
	mux.HandleFunc("GET /tanks", s.handleTanks)
	mux.HandleFunc("GET /tanks/{name}", s.handleTank)
	mux.HandleFunc("GET /tanks/{name}/info", s.handleInfo)
	mux.HandleFunc("GET /tanks/{name}/events", s.handleTankEvents)
	mux.HandleFunc("POST /tanks/{name}/cooling", s.handleCooling)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("POST /warp", s.handleWarp)
	if s.Hub != nil {
		mux.Handle("GET /ws", s.Hub)
	}
	return mux
}

// Start serves the admin UI until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("admin UI listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Snapshot sim.VesselSnapshot
		Tanks    []config.TankConfig
	}{
		Snapshot: s.Sim.Snapshot(),
		Tanks:    s.Sim.GetConfig().Tanks,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index failed", "err", err)
	}
}

func (s *Server) handleVessel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Snapshot())
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Power())
}

func (s *Server) handleTanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Tanks())
}

func (s *Server) handleTank(w http.ResponseWriter, r *http.Request) {
	st, err := s.Sim.Tank(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Sim.Info(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(info))
}

func (s *Server) handleTankEvents(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, err := s.Sim.Tank(name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Sim.EventsFor(name))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Events())
}

// handleCooling sets cooling with ?enabled=true|false, or toggles it when
// enabled is absent or "toggle".
func (s *Server) handleCooling(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	v := r.URL.Query().Get("enabled")

	var enabled bool
	var err error
	if v == "" || v == "toggle" {
		enabled, err = s.Sim.ToggleCooling(name)
	} else {
		want, perr := strconv.ParseBool(v)
		if perr != nil {
			http.Error(w, "enabled must be true, false or toggle", http.StatusBadRequest)
			return
		}
		var st boiloff.Status
		st, err = s.Sim.SetCooling(name, want)
		enabled = st.CoolingEnabled
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tank": name, "cooling_enabled": enabled})
}

// handleWarp sets the time warp factor from ?factor=N (N >= 1).
func (s *Server) handleWarp(w http.ResponseWriter, r *http.Request) {
	factor, err := strconv.ParseFloat(r.URL.Query().Get("factor"), 64)
	if err != nil || factor < 1 {
		http.Error(w, "factor must be a number >= 1", http.StatusBadRequest)
		return
	}
	s.Sim.SetTimeWarp(factor)
	writeJSON(w, http.StatusOK, map[string]float64{"time_warp": s.Sim.Snapshot().TimeWarp})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, sim.ErrUnknownTank) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
