package domain

import "strings"

// ContentKind tags the variant carried by Content. Each persona maps to one
// kind, which decides both the generation prompt and the semantic fields used
// for fingerprinting.
type ContentKind string

const (
	KindQuiz  ContentKind = "quiz"
	KindVocab ContentKind = "vocab"
	KindTip   ContentKind = "tip"
)

// Content is the tagged union of generated content shapes. Exactly one of the
// variant pointers is set, matching Kind.
type Content struct {
	Kind  ContentKind   `json:"kind"`
	Quiz  *QuizContent  `json:"quiz,omitempty"`
	Vocab *VocabContent `json:"vocab,omitempty"`
	Tip   *TipContent   `json:"tip,omitempty"`
}

// QuizContent is a multiple-choice question card.
type QuizContent struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// VocabContent is a word-of-the-day card.
type VocabContent struct {
	Word     string   `json:"word"`
	Meaning  string   `json:"meaning"`
	Example  string   `json:"example,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// TipContent is a hook-plus-tips card.
type TipContent struct {
	Hook         string   `json:"hook"`
	Tips         []string `json:"tips"`
	CallToAction string   `json:"call_to_action,omitempty"`
}

// SemanticFields returns the subject and answer that define this content's
// substance, falling through the variant's alternatives so a value is always
// produced. Incidental fields (explanations, CTAs) are excluded on purpose.
func (c Content) SemanticFields() (subject, answer string) {
	switch c.Kind {
	case KindVocab:
		if c.Vocab == nil {
			return "", ""
		}
		return strings.TrimSpace(c.Vocab.Word), strings.TrimSpace(c.Vocab.Meaning)
	case KindTip:
		if c.Tip == nil {
			return "", ""
		}
		answer = ""
		if len(c.Tip.Tips) > 0 {
			answer = strings.TrimSpace(c.Tip.Tips[0])
		}
		return strings.TrimSpace(c.Tip.Hook), answer
	default:
		if c.Quiz == nil {
			return "", ""
		}
		subject = strings.TrimSpace(c.Quiz.Question)
		answer = strings.TrimSpace(c.Quiz.Answer)
		if answer == "" && len(c.Quiz.Options) > 0 {
			answer = strings.TrimSpace(c.Quiz.Options[0])
		}
		return subject, answer
	}
}

// Title returns a short human-readable headline for publish metadata.
func (c Content) Title() string {
	subject, _ := c.SemanticFields()
	return subject
}

// KindForPersona maps a content persona to the variant it generates.
// Unconfigured personas fall back to quiz, the dominant format.
func KindForPersona(persona string) ContentKind {
	switch strings.ToLower(strings.TrimSpace(persona)) {
	case "vocab_builder", "word_of_the_day":
		return KindVocab
	case "health_tips", "life_hacks":
		return KindTip
	default:
		return KindQuiz
	}
}
