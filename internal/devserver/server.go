// Package devserver is an in-memory election backend implementing the four
// operations the client consumes. It backs local development and the
// integration tests; it is not the production backend.
package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
)

type ballot struct {
	votes  map[int]int // position id -> candidate id
	code   string
	castAt time.Time
}

type Server struct {
	mu        sync.Mutex
	positions []domain.Position
	vouchers  map[string]*ballot // issued voucher -> its ballot
	receipts  map[string]*ballot // verification code -> same ballot
}

// New builds a server over the given catalog accepting the given vouchers.
func New(positions []domain.Position, vouchers []string) *Server {
	s := &Server{
		positions: positions,
		vouchers:  make(map[string]*ballot, len(vouchers)),
		receipts:  map[string]*ballot{},
	}
	for _, v := range vouchers {
		s.vouchers[v] = &ballot{votes: map[int]int{}}
	}
	return s
}

// Demo seeds a small catalog and a fixed voucher set for local runs.
func Demo() *Server {
	return New([]domain.Position{
		{ID: 1, Name: "President", Candidates: []domain.Candidate{
			{ID: 10, Name: "Amara Obi", Manifesto: "Open budgets, open doors."},
			{ID: 11, Name: "Liam Carter", Manifesto: "A club for every student."},
		}},
		{ID: 2, Name: "Vice President", Candidates: []domain.Candidate{
			{ID: 20, Name: "Sofia Reyes", Manifesto: "Longer library hours."},
			{ID: 21, Name: "Noah Kim", Manifesto: "Cheaper cafeteria meals."},
		}},
		{ID: 3, Name: "Treasurer", Candidates: []domain.Candidate{
			{ID: 30, Name: "Maya Patel", Manifesto: "Every shilling accounted for."},
		}},
	}, []string{"ALPHA-2215", "BRAVO-8891", "CHARLIE-4470"})
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Post("/login", s.handleLogin)
	r.Get("/election/positions", s.handlePositions)
	r.Post("/vote", s.handleVote)
	r.Post("/verify", s.handleVerify)

	return r
}

type loginRequest struct {
	Voucher string `json:"voucher"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.vouchers[req.Voucher]
	if !ok {
		http.Error(w, "invalid voucher", http.StatusUnauthorized)
		return
	}
	if len(b.votes) == len(s.positions) {
		// Single use: a fully voted voucher cannot open another session.
		http.Error(w, "voucher already used", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.positions)
}

type voteRequest struct {
	Voucher     string `json:"voucher"`
	PositionID  int    `json:"position_id"`
	CandidateID int    `json:"candidate_id"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.vouchers[req.Voucher]
	if !ok {
		http.Error(w, "invalid voucher", http.StatusUnauthorized)
		return
	}

	var position *domain.Position
	for i := range s.positions {
		if s.positions[i].ID == req.PositionID {
			position = &s.positions[i]
			break
		}
	}
	if position == nil {
		http.Error(w, "unknown position", http.StatusBadRequest)
		return
	}
	if !position.HasCandidate(req.CandidateID) {
		http.Error(w, "candidate does not run for this position", http.StatusBadRequest)
		return
	}
	if _, voted := b.votes[req.PositionID]; voted {
		http.Error(w, "position already voted", http.StatusConflict)
		return
	}

	b.votes[req.PositionID] = req.CandidateID
	if b.code == "" {
		b.code = uuid.New().String()
		b.castAt = time.Now()
		s.receipts[b.code] = b
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"verification_code": b.code})
}

type verifyRequest struct {
	VerificationCode string `json:"verification_code"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.receipts[req.VerificationCode]
	if !ok {
		http.Error(w, "vote not found", http.StatusNotFound)
		return
	}

	// The receipt confirms the ballot without revealing any choices.
	record := domain.VoteRecord{
		VerificationCode: req.VerificationCode,
		CastAt:           b.castAt,
	}
	for _, p := range s.positions {
		if _, voted := b.votes[p.ID]; voted {
			record.Positions = append(record.Positions, p.Name)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "found", "vote": record})
}
