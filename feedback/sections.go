package feedback

// Tone is the color family a score label is drawn in
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneBlue   Tone = "blue"
	ToneOrange Tone = "orange"
	ToneRed    Tone = "red"
)

// Label is the short verdict shown next to a score
type Label struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// ScoreLabel maps a 0..100 score to its verdict
func ScoreLabel(score int) Label {
	switch {
	case score >= 80:
		return Label{Text: "great!", Tone: ToneGreen}
	case score >= 60:
		return Label{Text: "good", Tone: ToneBlue}
	case score >= 40:
		return Label{Text: "needs work", Tone: ToneOrange}
	default:
		return Label{Text: "needs work", Tone: ToneRed}
	}
}

// Section keys, also used as accordion identifiers
const (
	SectionContent      = "content"
	SectionSkills       = "skills"
	SectionToneAndStyle = "toneAndStyle"
	SectionStructure    = "structure"
	SectionChecklist    = "checklist"
)

// DefaultOpenSection is expanded when the results page first renders
const DefaultOpenSection = SectionContent

// Section is one accordion entry
type Section struct {
	Key      string
	Title    string
	Icon     string
	Category Category
}

// Label returns the verdict for the section score
func (s Section) Label() Label {
	return ScoreLabel(s.Category.Score)
}

// Sections lists the scored accordion entries in display order
func (f *Feedback) Sections() []Section {
	return []Section{
		{Key: SectionContent, Title: "Content", Icon: "📝", Category: f.Content},
		{Key: SectionSkills, Title: "Skills", Icon: "⚡", Category: f.Skills},
		{Key: SectionToneAndStyle, Title: "Tone & Style", Icon: "🎨", Category: f.ToneAndStyle},
		{Key: SectionStructure, Title: "Structure", Icon: "🏗️", Category: f.Structure},
	}
}

// Breakdown is the mini score list on the overall score card
func (f *Feedback) Breakdown() []Section {
	return []Section{
		{Key: SectionToneAndStyle, Title: "Tone & Style", Category: f.ToneAndStyle},
		{Key: SectionStructure, Title: "Structure", Category: f.Structure},
		{Key: SectionContent, Title: "Content", Category: f.Content},
		{Key: SectionSkills, Title: "Skills", Category: f.Skills},
	}
}

// Checklist is the fixed list of improvements offered under every review
var Checklist = []string{
	`Add quantifiable achievements (e.g., "Increased sales by 20%")`,
	"Replace generic phrases with specific outcomes",
	"Use a professional tone, avoid casual or conversational language",
	`Remove all first-person pronouns ("I", "me", "my")`,
	"Reorder sections for better impact (e.g., Skills or Key Tech roles)",
	"Eliminate unnecessary white space or overly dense text",
	"Add missing soft skills like communication or leadership",
}

// Accordion tracks which section is expanded. At most one is open at a time.
type Accordion struct {
	open string
}

// NewAccordion starts with the default section expanded
func NewAccordion() *Accordion {
	return &Accordion{open: DefaultOpenSection}
}

// Toggle opens key, or closes it when it is already the open section
func (a *Accordion) Toggle(key string) {
	if a.open == key {
		a.open = ""
		return
	}
	a.open = key
}

// IsOpen reports whether key is the expanded section
func (a *Accordion) IsOpen(key string) bool {
	return key != "" && a.open == key
}

// Open returns the expanded section key, or "" when all are closed
func (a *Accordion) Open() string {
	return a.open
}
