// Package gateway is the public HTTP surface. Handlers validate input, run
// the synchronous OTP and rate-limit checks, enqueue exactly one task, and
// return its id without waiting on any worker.
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/dispatch"
	"github.com/phenopredict/phenogate/internal/handlers"
	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/otp"
	"github.com/phenopredict/phenogate/internal/ratelimit"
	"github.com/phenopredict/phenogate/internal/result"
)

const maxUploadBytes = 16 << 20

type Server struct {
	dispatcher *dispatch.Dispatcher
	results    result.Store
	otp        *otp.Manager
	limiter    *ratelimit.Limiter
	met        *metrics.Metrics
	log        *zap.Logger
	router     chi.Router
}

func New(dispatcher *dispatch.Dispatcher, results result.Store, otpMgr *otp.Manager, limiter *ratelimit.Limiter, met *metrics.Metrics, log *zap.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		results:    results,
		otp:        otpMgr,
		limiter:    limiter,
		met:        met,
		log:        log.Named("gateway"),
	}
	rtr := chi.NewRouter()
	rtr.Get("/healthz", s.handleHealth)
	rtr.Handle("/metrics", met.Handler())
	rtr.Post("/signup", s.handleSignup)
	rtr.Post("/verify", s.handleVerify)
	rtr.Post("/login", s.handleLogin)
	rtr.Post("/trait-predict", s.handleTraitPredict)
	rtr.Get("/task/{id}", s.handleTaskStatus)
	s.router = rtr
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	name := r.PostFormValue("name")
	email := otp.Normalize(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if name == "" || email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	if !s.limiter.Allow(r.Context(), email) {
		s.met.RateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	code, err := s.otp.Issue(r.Context(), email)
	if err != nil {
		s.log.Error("otp issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not issue verification code")
		return
	}

	s.enqueue(w, r, handlers.TaskAuthSignup, handlers.SignupPayload{
		Name:             name,
		Email:            email,
		Password:         password,
		VerificationCode: code,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	email := otp.Normalize(r.PostFormValue("email"))
	code := r.PostFormValue("code")
	if email == "" || code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	// No rate limit here: single-use deletion already guards the verify
	// path, and a limiter would mask the expired/invalid distinction for
	// back-to-back calls.
	switch err := s.otp.Verify(r.Context(), email, code); {
	case errors.Is(err, otp.ErrExpired):
		s.met.OTPRejected.WithLabelValues("expired").Inc()
		writeError(w, http.StatusBadRequest, "OTP expired or not found")
		return
	case errors.Is(err, otp.ErrMismatch):
		s.met.OTPRejected.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	case err != nil:
		s.log.Error("otp verify failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "verification unavailable")
		return
	}

	s.enqueue(w, r, handlers.TaskAuthVerify, handlers.VerifyPayload{Email: email, Code: code})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	email := otp.Normalize(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.enqueue(w, r, handlers.TaskAuthLogin, handlers.LoginPayload{Email: email, Password: password})
}

func (s *Server) handleTraitPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart data")
		return
	}
	username := r.PostFormValue("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	s.enqueue(w, r, handlers.TaskTraitPredict, handlers.TraitPayload{
		Username: username,
		Filename: header.Filename,
		File:     data,
	})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.results.Get(r.Context(), id)
	if errors.Is(err, result.ErrNotFound) {
		// Unknown id is a distinct state from PENDING.
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "UNKNOWN", "result": nil})
		return
	}
	if err != nil {
		s.log.Error("result lookup failed", zap.String("task_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "result store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, name string, payload any) {
	id, err := s.dispatcher.Enqueue(r.Context(), name, payload)
	if err != nil {
		s.log.Error("enqueue failed", zap.String("task", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not enqueue task")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
