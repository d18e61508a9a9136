// Package server exposes expression evaluation over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tliron/commonlog"

	"minic/pkg/config"
	"minic/pkg/eval"
	"minic/pkg/history"
)

const maxBodyBytes = 1 << 20

var log = commonlog.GetLogger("minic.server")

type evalRequest struct {
	Source string `json:"source"`
}

type evalResponse struct {
	Result string `json:"result,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type Option func(*Server)

// WithRecorder records every evaluation in r.
func WithRecorder(r history.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithStrict evaluates in strict scanning mode.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

type Server struct {
	cfg      config.Server
	ttl      time.Duration
	recorder history.Recorder
	strict   bool
	mux      *http.ServeMux
}

func New(cfg config.Server, opts ...Option) (*Server, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, ttl: ttl, mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /token", s.handleToken)
	s.mux.Handle("POST /eval", s.authenticated(http.HandlerFunc(s.handleEval)))
	s.mux.Handle("GET /ws", s.authenticated(http.HandlerFunc(s.handleWebSocket)))
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Noticef("listening on %s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Noticef("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AuthEnabled() {
		writeJSON(w, http.StatusNotFound, evalResponse{Error: "authentication is disabled"})
		return
	}
	if s.cfg.PasswordHash == "" {
		writeJSON(w, http.StatusForbidden, evalResponse{Error: "no password configured"})
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, evalResponse{Error: err.Error()})
		return
	}
	if !VerifyPassword(s.cfg.PasswordHash, req.Password) {
		log.Warningf("rejected token request from %s", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, evalResponse{Error: "invalid password"})
		return
	}

	token, err := SignToken(map[string]interface{}{"sub": "minic"}, s.cfg.JWTSecret, s.ttl)
	if err != nil {
		log.Errorf("signing token: %v", err)
		writeJSON(w, http.StatusInternalServerError, evalResponse{Error: "cannot sign token"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req evalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, evalResponse{Error: err.Error()})
		return
	}

	resp, ok := s.evaluate(r.Context(), req.Source)
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// evaluate runs source and records it. ok is false when evaluation failed.
func (s *Server) evaluate(ctx context.Context, source string) (evalResponse, bool) {
	result, err := eval.Evaluate(source, eval.WithStrict(s.strict))

	entry := history.Entry{Source: source}
	var resp evalResponse
	if err != nil {
		resp = evalResponse{Error: err.Error(), Stage: eval.Stage(err)}
		entry.Error = resp.Error
	} else {
		resp = evalResponse{Result: result.String(), Kind: result.Kind().String()}
		entry.Result = resp.Result
		entry.Kind = resp.Kind
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, entry); err != nil {
			log.Warningf("recording history: %v", err)
		}
	}
	return resp, err == nil
}

// authenticated requires a valid bearer token when a secret is configured.
// WebSocket clients may pass the token as the "token" query parameter.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			var err error
			token, err = bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, evalResponse{Error: err.Error()})
				return
			}
		}

		if _, err := VerifyToken(token, s.cfg.JWTSecret); err != nil {
			log.Debugf("rejected token from %s: %v", r.RemoteAddr, err)
			writeJSON(w, http.StatusUnauthorized, evalResponse{Error: ErrInvalidToken.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debugf("writing response: %v", err)
	}
}
