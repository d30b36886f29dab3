package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ramionh/thrive-well-guide-sub001/internal/catalog"
	"github.com/ramionh/thrive-well-guide-sub001/internal/classifier"
	"github.com/ramionh/thrive-well-guide-sub001/internal/forms"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

// stepsHandler handles GET /steps: the navigable catalog annotated with the
// caller's status per step, the current-step pointer and phase visibility.
func (s *Server) stepsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	gate, err := s.gateFor(r.Context(), sess)
	if err != nil {
		slog.Error("stepsHandler: failed to build gate", "error", err, "userID", sess.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load progress"))
		return
	}

	phases := make(map[models.Phase]bool, len(catalog.Phases))
	for _, phase := range catalog.Phases {
		phases[phase] = gate.PhaseVisible(phase)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"steps":          gate.Steps(),
		"current_step":   gate.CurrentStepID(),
		"visible_phases": phases,
	}))
}

// stepActionHandler handles POST /steps/{id}/complete and
// POST /steps/{id}/select.
func (s *Server) stepActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/steps/"), "/")
	if len(parts) != 2 {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	stepID, err := strconv.Atoi(parts[0])
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid step id"))
		return
	}
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	gate, err := s.gateFor(r.Context(), sess)
	if err != nil {
		slog.Error("stepActionHandler: failed to build gate", "error", err, "userID", sess.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load progress"))
		return
	}

	switch parts[1] {
	case "complete":
		if err := gate.MarkComplete(r.Context(), stepID); err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
			"step_id":      stepID,
			"current_step": gate.CurrentStepID(),
		}))
	case "select":
		if !gate.SelectStep(stepID) {
			writeJSONResponse(w, http.StatusForbidden, models.Error("Step is not enabled"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
			"current_step": gate.CurrentStepID(),
		}))
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
	}
}

// answersHandler handles GET and PUT /answers/{key}. An optional
// discriminator query parameter scopes the record; a PUT with a step query
// parameter also records that step's completion after a successful save.
func (s *Server) answersHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/answers/")
	if key == "" || strings.Contains(key, "/") {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}

	cfg := forms.Lookup(key)
	form, err := forms.New(sess, s.store, cfg)
	if err != nil {
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}
	if d := r.URL.Query().Get("discriminator"); d != "" {
		form = form.WithDiscriminator(d)
	}

	switch r.Method {
	case http.MethodGet:
		values, loadErr := form.Load(r.Context())
		if loadErr != nil {
			// The form still renders with defaults; the client decides how to
			// surface the degraded state.
			writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Stored answers unavailable, returning defaults", values))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(values))
	case http.MethodPut:
		var values forms.Values
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
			return
		}
		if err := s.saveAnswer(r, sess.UserID, form, values); err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Saved", nil))
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

// saveAnswer persists the form and, when the request names a catalog step,
// marks that step complete. Completion is skipped, not failed, when the step
// parameter is absent.
func (s *Server) saveAnswer(r *http.Request, userID string, form *forms.Form, values forms.Values) error {
	if err := form.Save(r.Context(), values); err != nil {
		return err
	}
	stepParam := r.URL.Query().Get("step")
	if stepParam == "" {
		return nil
	}
	stepID, err := strconv.Atoi(stepParam)
	if err != nil {
		slog.Warn("saveAnswer: ignoring malformed step parameter", "step", stepParam, "userID", userID)
		return nil
	}
	sess, err := s.sessionFrom(r)
	if err != nil {
		return err
	}
	gate, err := s.gateFor(r.Context(), sess)
	if err != nil {
		return err
	}
	return gate.MarkComplete(r.Context(), stepID)
}

// assessmentProgressHandler handles GET /assessments.
func (s *Server) assessmentProgressHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	progress, err := s.assessorFor(sess).ProgressFor(r.Context())
	if err != nil {
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(progress))
}

// assessmentSubmitHandler handles POST /assessments/{category}. Answers are a
// flat JSON object of question key to selected option. Once every category is
// assessed the assessment step in the catalog is recorded as completed.
func (s *Server) assessmentSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	category := classifier.Category(strings.TrimPrefix(r.URL.Path, "/assessments/"))
	sess, err := s.sessionFrom(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
		return
	}
	var answers map[string]string
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return
	}

	assessor := s.assessorFor(sess)
	result, err := assessor.Submit(r.Context(), category, answers)
	if err != nil {
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}

	progress, err := assessor.ProgressFor(r.Context())
	if err != nil {
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}
	if progress.AllAssessed {
		if stepID, ok := s.stepForFormKey(classifier.AssessmentFormKey); ok {
			if err := s.completeStep(r, sess.UserID, stepID); err != nil {
				slog.Error("assessmentSubmitHandler: failed to record assessment completion", "error", err, "userID", sess.UserID)
			}
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"result":   result,
		"progress": progress,
	}))
}

func (s *Server) completeStep(r *http.Request, userID string, stepID int) error {
	sess, err := s.sessionFrom(r)
	if err != nil {
		return err
	}
	gate, err := s.gateFor(r.Context(), sess)
	if err != nil {
		return err
	}
	return gate.MarkComplete(r.Context(), stepID)
}

// stepForFormKey returns the first catalog step persisting into the key.
func (s *Server) stepForFormKey(formKey string) (int, bool) {
	for _, step := range s.catalog.Steps() {
		if step.FormKey == formKey {
			return step.ID, true
		}
	}
	return 0, false
}
