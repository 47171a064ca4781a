package tutor

import "time"

type Screen string

const (
	ScreenWelcome   Screen = "welcome"
	ScreenAITutor   Screen = "aiTutor"
	ScreenRealTutor Screen = "realTutor"
)

// Section is an in-page navigable region: the three screens plus the informational panels.
type Section string

const (
	SectionWelcome   Section = "welcome"
	SectionAITutor   Section = "aiTutor"
	SectionRealTutor Section = "realTutor"
	SectionAbout     Section = "about"
	SectionServices  Section = "services"
	SectionTeam      Section = "team"
)

var Sections = []Section{
	SectionWelcome,
	SectionAITutor,
	SectionRealTutor,
	SectionAbout,
	SectionServices,
	SectionTeam,
}

func ParseSection(v string) (Section, error) {
	for _, s := range Sections {
		if string(s) == v {
			return s, nil
		}
	}
	return "", ErrUnknownSection
}

func ParseScreen(v string) (Screen, error) {
	switch Screen(v) {
	case ScreenWelcome, ScreenAITutor, ScreenRealTutor:
		return Screen(v), nil
	}
	return "", ErrUnknownScreen
}

// Screen reports which top-level screen a section corresponds to, if any.
func (s Section) Screen() (Screen, bool) {
	switch s {
	case SectionWelcome:
		return ScreenWelcome, true
	case SectionAITutor:
		return ScreenAITutor, true
	case SectionRealTutor:
		return ScreenRealTutor, true
	}
	return "", false
}

// Session 单个学习会话的状态，由调用方持有并显式传入各个操作
type Session struct {
	ID              string    `json:"id"`
	SelectedSubject string    `json:"selectedSubject,omitempty"`
	CurrentScreen   Screen    `json:"currentScreen"`
	ActiveSection   Section   `json:"activeSection"`
	Catalog         *Catalog  `json:"catalog"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewSession(id string, catalog *Catalog, now time.Time) *Session {
	return &Session{
		ID:            id,
		CurrentScreen: ScreenWelcome,
		ActiveSection: SectionWelcome,
		Catalog:       catalog,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Selected returns the selected subject, or false when none is selected.
func (s *Session) Selected() (*Subject, bool) {
	if s.SelectedSubject == "" {
		return nil, false
	}
	return s.Catalog.Get(s.SelectedSubject)
}

// SelectSubject sets the selected subject and returns its current progress for display.
// Unknown ids are rejected and leave the session untouched.
func SelectSubject(s *Session, id string) (int, error) {
	subject, ok := s.Catalog.Get(id)
	if !ok {
		return 0, ErrUnknownSubject
	}
	s.SelectedSubject = id
	return subject.Progress, nil
}

// ShowSection hides every section and shows only the target.
// Screen sections also move CurrentScreen; informational panels leave it as is.
func ShowSection(s *Session, target Section) error {
	if _, err := ParseSection(string(target)); err != nil {
		return err
	}
	s.ActiveSection = target
	if screen, ok := target.Screen(); ok {
		s.CurrentScreen = screen
	}
	return nil
}

func ShowScreen(s *Session, screen Screen) error {
	if _, err := ParseScreen(string(screen)); err != nil {
		return err
	}
	return ShowSection(s, Section(screen))
}

// Back jumps straight to the welcome screen; there is no history stack.
func Back(s *Session) {
	s.ActiveSection = SectionWelcome
	s.CurrentScreen = ScreenWelcome
}

// Visibility reports every section with exactly one of them visible.
func Visibility(s *Session) map[Section]bool {
	out := make(map[Section]bool, len(Sections))
	for _, sec := range Sections {
		out[sec] = sec == s.ActiveSection
	}
	return out
}
