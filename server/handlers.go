package server

import (
	"net/http"
	"strconv"

	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

type stateResponse struct {
	State      wizard.State           `json:"state"`
	Validation types.ValidationResult `json:"validation"`
}

type nextResponse struct {
	Advanced   bool                   `json:"advanced"`
	Validation types.ValidationResult `json:"validation"`
	State      wizard.State           `json:"state"`
}

type submitResponse struct {
	Outcome types.SubmissionOutcome `json:"outcome"`
	State   wizard.State            `json:"state"`
}

type submitError struct {
	Error   string                  `json:"error"`
	Kind    string                  `json:"kind"`
	Outcome types.SubmissionOutcome `json:"outcome"`
}

type fieldRequest struct {
	Value any `json:"value"`
}

type assistRequest struct {
	Message string `json:"message"`
}

// session resolves the caller's session, writing the error response when it
// cannot.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(r.Context(), clientID(w, r))
	if err != nil {
		s.logger.Error("Failed to open session", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Kind: "draft_unavailable"})
		return nil, false
	}
	return sess, true
}

func (s *Server) writeState(w http.ResponseWriter, c *wizard.Controller) {
	st := c.State()
	v, err := c.Validate(st.Step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: st, Validation: v})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		s.writeState(w, sess.controller)
	}
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	var req fieldRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if err := c.SetField(r.Context(), r.PathValue("key"), req.Value); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, c)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	var doc patch.Document
	if err := decodeBody(r, &doc); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if err := c.ApplyPatch(r.Context(), doc.Ops); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, c)
}

// handlePrefill copies the non-empty values of a partial application, e.g. a
// breed picked in the catalog, over the caller's application.
func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := readBody(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	initial, err := form.Unmarshal(data)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	if err := sess.controller.Prefill(r.Context(), initial); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, sess.controller)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	before := c.State().Step
	v, err := c.GoToNextStep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	st := c.State()
	writeJSON(w, http.StatusOK, nextResponse{Advanced: st.Step != before, Validation: v, State: st})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	if err := c.GoToPreviousStep(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, c)
}

func parseStep(w http.ResponseWriter, r *http.Request) (types.Step, bool) {
	n, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		badRequest(w, "step must be a number, got %q", r.PathValue("step"))
		return 0, false
	}
	return types.Step(n), true
}

func (s *Server) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	step, ok := parseStep(w, r)
	if !ok {
		return
	}
	if err := c.GoToStep(r.Context(), step); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, c)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	step, ok := parseStep(w, r)
	if !ok {
		return
	}
	v, err := c.Validate(step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c := sess.controller
	outcome, err := c.Submit(r.Context())
	if err != nil {
		writeJSON(w, wizard.HTTPStatus(err), submitError{Error: err.Error(), Kind: wizard.Kind(err), Outcome: outcome})
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Outcome: outcome, State: c.State()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.controller.Reset(r.Context())
	sess.history.Clear()
	s.writeState(w, sess.controller)
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "assistant is disabled", Kind: "disabled"})
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req assistRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	reply, err := s.assistant.Handle(r.Context(), sess.controller, sess.history, req.Message)
	if err != nil {
		s.logger.Error("Assistant failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	_, _ = w.Write([]byte(s.schema))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}
