package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ramionh/thrive-well-guide-sub001/internal/habit"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

// habitFocusHandler handles GET and POST /habits/focus.
func (s *Server) habitFocusHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	engine := s.habitEngineFor(sess)

	switch r.Method {
	case http.MethodGet:
		habits, err := engine.FocusedHabits(r.Context())
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{"habits": habits}))
	case http.MethodPost:
		var body struct {
			HabitID string `json:"habit_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.HabitID == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body, habit_id is required"))
			return
		}
		if err := engine.Focus(r.Context(), body.HabitID); err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Habit focused", nil))
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

// habitActionHandler routes /habits/{id}/advance, /habits/{id}/state,
// /habits/{id}/plans/{planType} and /habits/{id}/weeks/{n}.
func (s *Server) habitActionHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/habits/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	habitID := parts[0]

	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	engine := s.habitEngineFor(sess)

	switch {
	case len(parts) == 2 && parts[1] == "advance":
		if r.Method != http.MethodPost {
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
			return
		}
		week, err := engine.AdvanceWeek(r.Context(), habitID)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{"current_week": week}))

	case len(parts) == 2 && parts[1] == "state":
		s.habitStateHandler(w, r, engine, habitID)

	case len(parts) == 3 && parts[1] == "plans":
		s.dayPlanHandler(w, r, engine, habitID, models.PlanType(parts[2]))

	case len(parts) == 3 && parts[1] == "weeks":
		weekNumber, convErr := strconv.Atoi(parts[2])
		if convErr != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid week number"))
			return
		}
		s.weeklyStepHandler(w, r, engine, habitID, weekNumber)

	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
	}
}

func (s *Server) habitStateHandler(w http.ResponseWriter, r *http.Request, engine *habit.Engine, habitID string) {
	switch r.Method {
	case http.MethodGet:
		state, err := engine.State(r.Context(), habitID)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(state))
	case http.MethodPut:
		var body struct {
			Obstacles  string `json:"obstacles"`
			Strategies string `json:"strategies"`
			IsActive   bool   `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
			return
		}
		state, err := engine.UpdateState(r.Context(), habitID, body.Obstacles, body.Strategies, body.IsActive)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(state))
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

func (s *Server) dayPlanHandler(w http.ResponseWriter, r *http.Request, engine *habit.Engine, habitID string, planType models.PlanType) {
	switch r.Method {
	case http.MethodGet:
		plan, err := engine.DayPlan(r.Context(), habitID, planType)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		if plan == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("No plan saved"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(plan))
	case http.MethodPut:
		var body struct {
			Description string            `json:"description"`
			Obstacles   []models.Obstacle `json:"obstacles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
			return
		}
		plan, err := engine.SaveDayPlan(r.Context(), habitID, planType, body.Description, body.Obstacles)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		slog.Debug("dayPlanHandler: plan saved", "habitID", habitID, "planType", planType)
		writeJSONResponse(w, http.StatusOK, models.Success(plan))
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

func (s *Server) weeklyStepHandler(w http.ResponseWriter, r *http.Request, engine *habit.Engine, habitID string, weekNumber int) {
	switch r.Method {
	case http.MethodGet:
		view, err := engine.WeeklyStep(r.Context(), habitID, weekNumber)
		if err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(view))
	case http.MethodPut:
		var body struct {
			Note string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
			return
		}
		if err := engine.SaveWeeklyStep(r.Context(), habitID, weekNumber, body.Note); err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Saved", nil))
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}
