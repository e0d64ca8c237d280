package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/application/command"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.WrapError("http", "Decode", shared.ErrEmptyValue, "request body is required", err)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return shared.WrapError("http", "Decode", shared.ErrValueOutOfRange, "request body too large", err)
		}
		return shared.WrapError("http", "Decode", shared.ErrInvalidFormat, "request body is not valid JSON", err)
	}
	return nil
}

func deviceOf(r *http.Request) shared.DeviceID {
	return shared.DeviceID(r.PathValue("device"))
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"status":  "healthy",
			"uptime":  s.Uptime().Round(time.Second).String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// GAMIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRecordGameEvent handles POST /api/gamification/{device}/events.
// The body is one game event. The session stamps it with the server clock;
// a client occurredAt is ignored.
func (s *Server) handleRecordGameEvent(w http.ResponseWriter, r *http.Request) {
	var ev gamification.Event
	if err := decodeJSON(r, &ev); err != nil {
		s.writeError(w, r, "record_game_event", err)
		return
	}

	result, err := s.deps.RecordEvent.Handle(r.Context(), command.RecordGameEventCommand{
		Device: deviceOf(r),
		Event:  ev,
	})
	if err != nil {
		s.writeError(w, r, "record_game_event", err)
		return
	}

	if len(result.Unlocked) > 0 {
		logger.FromContext(r.Context()).Debug("event unlocked achievements",
			logger.DeviceID(string(deviceOf(r))),
			logger.EventType(string(ev.Type)),
			logger.Int("count", len(result.Unlocked)),
		)
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleRecordSignal handles POST /api/gamification/{device}/signals.
func (s *Server) handleRecordSignal(w http.ResponseWriter, r *http.Request) {
	var sig command.RecordSignalCommand
	if err := decodeJSON(r, &sig); err != nil {
		s.writeError(w, r, "record_signal", err)
		return
	}

	result, err := s.deps.RecordSignal.Handle(r.Context(), sig)
	if err != nil {
		s.writeError(w, r, "record_signal", err)
		return
	}
	for _, a := range result.Unlocked {
		logger.FromContext(r.Context()).Debug("signal unlocked achievement",
			logger.DeviceID(string(deviceOf(r))),
			logger.AchievementID(a.ID),
		)
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Game.State(r.Context(), deviceOf(r))
	if err != nil {
		s.writeError(w, r, "get_game_state", err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleResetGameState(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.ResetProgress.Handle(r.Context(), deviceOf(r))
	if err != nil {
		s.writeError(w, r, "reset_progress", err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Game.Progress(r.Context(), deviceOf(r))
	if err != nil {
		s.writeError(w, r, "get_progress", err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Game.Notifications(r.Context(), deviceOf(r))
	if err != nil {
		s.writeError(w, r, "get_notifications", err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Notifications.Dismiss(r.Context(), deviceOf(r), id); err != nil {
		s.writeError(w, r, "dismiss_notification", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"dismissed": id})
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.Clear(r.Context(), deviceOf(r)); err != nil {
		s.writeError(w, r, "clear_notifications", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"cleared": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTACT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var in portfolio.ContactInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "submit_contact", err)
		return
	}
	msg, err := s.deps.SubmitContact.Handle(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "submit_contact", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, msg)
}

func (s *Server) handleListContactMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.deps.Portfolio.ContactMessages(r.Context())
	if err != nil {
		s.writeError(w, r, "list_contact_messages", err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, messages, &ResponseMeta{TotalCount: len(messages)})
}

func (s *Server) handleUpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "update_contact_status", err)
		return
	}
	msg, err := s.deps.UpdateContact.Handle(r.Context(), command.UpdateContactStatusCommand{
		MessageID: r.PathValue("id"),
		Status:    body.Status,
	})
	if err != nil {
		s.writeError(w, r, "update_contact_status", err)
		return
	}
	writeJSON(w, r, http.StatusOK, msg)
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type analyticsBody struct {
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData"`
	SessionID string          `json:"sessionId"`
}

// eventData keeps a JSON string as its text and any other JSON value as
// its encoding.
func eventData(raw json.RawMessage) (*string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	return &trimmed, nil
}

// handleTrackAnalytics handles POST /api/analytics/events. User agent and
// IP come from the request; the session id from the body or X-Session-ID.
func (s *Server) handleTrackAnalytics(w http.ResponseWriter, r *http.Request) {
	var body analyticsBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "track_analytics", err)
		return
	}
	data, err := eventData(body.EventData)
	if err != nil {
		s.writeError(w, r, "track_analytics", shared.WrapError("analytics", "Track", shared.ErrInvalidFormat, "eventData is malformed", err))
		return
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}

	event, stored, err := s.deps.TrackAnalytics.Handle(r.Context(), portfolio.AnalyticsInput{
		EventType: body.EventType,
		EventData: data,
		UserAgent: r.UserAgent(),
		IPAddress: getClientIP(r),
		SessionID: sessionID,
	})
	if err != nil {
		s.writeError(w, r, "track_analytics", err)
		return
	}
	if !stored {
		writeJSON(w, r, http.StatusAccepted, event)
		return
	}
	writeJSON(w, r, http.StatusCreated, event)
}

func (s *Server) handleListAnalytics(w http.ResponseWriter, r *http.Request) {
	limit := getQueryParamInt(r, "limit", portfolio.DefaultEventsLimit)
	if limit <= 0 || limit > portfolio.DefaultEventsLimit {
		limit = portfolio.DefaultEventsLimit
	}
	events, err := s.deps.Analytics.Events(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, "list_analytics", err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, events, &ResponseMeta{TotalCount: len(events), Limit: limit})
}

func (s *Server) handleAnalyticsMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.deps.Analytics.Metrics(r.Context())
	if err != nil {
		s.writeError(w, r, "analytics_metrics", err)
		return
	}
	writeJSON(w, r, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHOWCASE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := s.deps.Portfolio.Skills(r.Context())
	if err != nil {
		s.writeError(w, r, "list_skills", err)
		return
	}
	writeJSON(w, r, http.StatusOK, skills)
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var in portfolio.SkillInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "create_skill", err)
		return
	}
	skill, err := s.deps.Skills.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create_skill", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, skill)
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	var patch portfolio.SkillPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, "update_skill", err)
		return
	}
	skill, err := s.deps.Skills.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, "update_skill", err)
		return
	}
	writeJSON(w, r, http.StatusOK, skill)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Skills.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "delete_skill", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Portfolio.Projects(r.Context())
	if err != nil {
		s.writeError(w, r, "list_projects", err)
		return
	}
	writeJSON(w, r, http.StatusOK, projects)
}

func (s *Server) handleListFeaturedProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Portfolio.FeaturedProjects(r.Context())
	if err != nil {
		s.writeError(w, r, "list_featured_projects", err)
		return
	}
	writeJSON(w, r, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.deps.Portfolio.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "get_project", err)
		return
	}
	writeJSON(w, r, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in portfolio.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "create_project", err)
		return
	}
	project, err := s.deps.Projects.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create_project", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch portfolio.ProjectPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, "update_project", err)
		return
	}
	project, err := s.deps.Projects.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, "update_project", err)
		return
	}
	writeJSON(w, r, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Projects.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "delete_project", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id})
}
