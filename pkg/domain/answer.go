package domain

// Answer is the reply produced for a turn.
type Answer struct {
	// Display is the text shown to the user.
	Display string `json:"display"`
	// Voice is the text handed to speech synthesis. Defaults to Display.
	Voice string `json:"voice,omitempty"`
}

// NewAnswer builds an answer that is displayed and spoken identically.
func NewAnswer(text string) *Answer {
	return &Answer{Display: text, Voice: text}
}

// Spoken returns the voice text, falling back to the display text.
func (a *Answer) Spoken() string {
	if a.Voice != "" {
		return a.Voice
	}
	return a.Display
}

// NotUnderstood is returned when no answering function produced a reply.
var NotUnderstood = Answer{
	Display: "Sorry, I did not understand that.",
	Voice:   "Sorry, I did not understand that.",
}

// ParseResult carries the slots extracted by the parse layer. The dialogue
// manager never inspects it; it only forwards it to answering functions.
type ParseResult map[string]any

// Flag reports whether key holds a true boolean.
func (p ParseResult) Flag(key string) bool {
	v, ok := p[key].(bool)
	return ok && v
}

// String returns the string slot at key.
func (p ParseResult) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Has reports whether the slot is present.
func (p ParseResult) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Reply is the outcome of one processed turn.
type Reply struct {
	Dialogue   string        `json:"dialogue"`
	Answer     Answer        `json:"answer"`
	Understood bool          `json:"understood"`
	Focus      string        `json:"focus,omitempty"`
	Finished   bool          `json:"finished,omitempty"`
	TimedOut   bool          `json:"timed_out,omitempty"`
	Changes    *SnapshotDiff `json:"changes,omitempty"`
}
