package learners

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/moussahe/schoolaris-backend/internal/gamification"
	"github.com/moussahe/schoolaris-backend/internal/models"
	"github.com/moussahe/schoolaris-backend/internal/quiz"
)

type Handler struct {
	store *SQLStore
	gam   *gamification.Service
	quiz  *quiz.Service
}

func NewHandler(store *SQLStore, gam *gamification.Service, quizService *quiz.Service) *Handler {
	return &Handler{store: store, gam: gam, quiz: quizService}
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// RegisterRoutes registers learner endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/learners", h.Create).Methods("POST")
	protected.HandleFunc("/learners", h.List).Methods("GET")
	protected.HandleFunc("/learners/{learnerID}/dashboard", h.Dashboard).Methods("GET")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateLearnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Name is required"})
		return
	}
	if req.GradeLevel < 1 || req.GradeLevel > 12 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Grade level must be between 1 and 12"})
		return
	}

	learner, err := h.store.CreateLearner(userID, req.Name, req.GradeLevel)
	if err != nil {
		log.Printf("[learners] Create error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create learner"})
		return
	}

	writeJSON(w, http.StatusCreated, learner)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	learners, err := h.store.ListLearners(userID)
	if err != nil {
		log.Printf("[learners] List error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list learners"})
		return
	}
	if learners == nil {
		learners = []models.Learner{}
	}

	writeJSON(w, http.StatusOK, learners)
}

// DashboardResponse is the parent's view of one learner: profile,
// gamification state, recent lesson activity, and open weak areas.
type DashboardResponse struct {
	Learner        *models.Learner             `json:"learner"`
	Gamification   *gamification.StateResponse `json:"gamification"`
	RecentProgress []models.Progress           `json:"recent_progress"`
	OpenWeakAreas  []models.WeakArea           `json:"open_weak_areas"`
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	learnerID, err := strconv.ParseInt(mux.Vars(r)["learnerID"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid learner id"})
		return
	}

	learner, err := h.store.GetLearner(learnerID)
	if err != nil || learner.ParentID != userID {
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			log.Printf("[learners] Dashboard error: %v", err)
		}
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Learner not found"})
		return
	}

	state, err := h.gam.GetState(learnerID)
	if err != nil {
		log.Printf("[learners] Dashboard gamification error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	progress, err := h.quiz.RecentProgress(learnerID, 10)
	if err != nil {
		log.Printf("[learners] Dashboard progress error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}
	if progress == nil {
		progress = []models.Progress{}
	}

	weakAreas, err := h.quiz.OpenWeakAreas(learnerID)
	if err != nil {
		log.Printf("[learners] Dashboard weak areas error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}
	if weakAreas == nil {
		weakAreas = []models.WeakArea{}
	}

	writeJSON(w, http.StatusOK, DashboardResponse{
		Learner:        learner,
		Gamification:   state,
		RecentProgress: progress,
		OpenWeakAreas:  weakAreas,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
