package command

import (
	"context"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SIGNAL COMMAND
// Raw page signals (a section scrolling into view, a click, a scroll sample)
// translated into game events by the session attached to the context.
// ══════════════════════════════════════════════════════════════════════════════

// SignalKind names a page signal.
type SignalKind string

const (
	SignalSectionEnter SignalKind = "section_enter"
	SignalSectionLeave SignalKind = "section_leave"
	SignalClick        SignalKind = "click"
	SignalHover        SignalKind = "hover"
	SignalScroll       SignalKind = "scroll"
	SignalVoiceCommand SignalKind = "voice_command"
	SignalFormSubmit   SignalKind = "form_submit"
	SignalProjectView  SignalKind = "project_view"
)

// DefaultFormType is assumed when a form_submit signal names no form.
const DefaultFormType = "contact"

// RecordSignalCommand carries one page signal. Only the fields relevant to
// Kind are read.
type RecordSignalCommand struct {
	Kind        SignalKind `json:"kind"`
	SectionID   string     `json:"sectionId,omitempty"`
	SectionName string     `json:"sectionName,omitempty"`
	// Target is "button" or "link" for clicks, "skill" or "magnetic" for
	// hovers. Empty picks the first.
	Target    string  `json:"target,omitempty"`
	Depth     float64 `json:"depth,omitempty"`
	FormType  string  `json:"formType,omitempty"`
	ProjectID string  `json:"projectId,omitempty"`
}

func (c RecordSignalCommand) Validate() error {
	const op = "ValidateSignal"
	switch c.Kind {
	case SignalSectionEnter, SignalSectionLeave:
		if c.SectionID == "" {
			return shared.NewDomainError("signal", op, shared.ErrEmptyValue, "sectionId is required")
		}
	case SignalClick:
		switch tracker.ClickTarget(c.Target) {
		case "", tracker.ClickButton, tracker.ClickLink:
		default:
			return shared.NewDomainError("signal", op, shared.ErrInvalidInput, fmt.Sprintf("unknown click target %q", c.Target))
		}
	case SignalHover:
		switch tracker.HoverTarget(c.Target) {
		case "", tracker.HoverSkill, tracker.HoverMagnetic:
		default:
			return shared.NewDomainError("signal", op, shared.ErrInvalidInput, fmt.Sprintf("unknown hover target %q", c.Target))
		}
	case SignalScroll:
		if c.Depth < 0 || c.Depth > 100 {
			return shared.NewDomainError("signal", op, shared.ErrValueOutOfRange, "depth must be between 0 and 100")
		}
	case SignalProjectView:
		if c.ProjectID == "" {
			return shared.NewDomainError("signal", op, shared.ErrEmptyValue, "projectId is required")
		}
	case SignalVoiceCommand, SignalFormSubmit:
	default:
		return shared.NewDomainError("signal", op, shared.ErrInvalidInput, fmt.Sprintf("unknown signal kind %q", c.Kind))
	}
	return nil
}

// RecordSignalHandler handles RecordSignalCommand. The device session must
// already be attached to the context with tracker.WithSession.
type RecordSignalHandler struct{}

func NewRecordSignalHandler() *RecordSignalHandler { return &RecordSignalHandler{} }

func (h *RecordSignalHandler) Handle(ctx context.Context, cmd RecordSignalCommand) (*RecordGameEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_signal: %w", err)
	}
	session := tracker.FromContext(ctx)

	var unlocked []gamification.Achievement
	switch cmd.Kind {
	case SignalSectionEnter:
		unlocked = session.EnterSection(ctx, cmd.SectionID, cmd.SectionName)
	case SignalSectionLeave:
		unlocked = session.LeaveSection(ctx, cmd.SectionID)
	case SignalClick:
		unlocked = session.TrackClick(ctx, tracker.ClickTarget(cmd.Target))
	case SignalHover:
		unlocked = session.TrackHover(ctx, tracker.HoverTarget(cmd.Target))
	case SignalScroll:
		unlocked = session.TrackScroll(ctx, cmd.Depth)
	case SignalVoiceCommand:
		unlocked = session.TrackVoiceCommand(ctx)
	case SignalFormSubmit:
		form := cmd.FormType
		if form == "" {
			form = DefaultFormType
		}
		unlocked = session.SubmitForm(ctx, form)
	case SignalProjectView:
		unlocked = session.TrackProjectView(ctx, cmd.ProjectID)
	}

	if unlocked == nil {
		unlocked = []gamification.Achievement{}
	}
	return &RecordGameEventResult{Unlocked: unlocked, Summary: Summarize(session)}, nil
}
