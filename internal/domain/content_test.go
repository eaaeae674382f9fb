package domain

import "testing"

func TestKindForPersona(t *testing.T) {
	cases := []struct {
		persona string
		want    ContentKind
	}{
		{"vocab_builder", KindVocab},
		{"word_of_the_day", KindVocab},
		{"health_tips", KindTip},
		{"life_hacks", KindTip},
		{"brain_teaser", KindQuiz},
		{"  VOCAB_BUILDER ", KindVocab},
		{"", KindQuiz},
		{"something_new", KindQuiz},
	}
	for _, tc := range cases {
		if got := KindForPersona(tc.persona); got != tc.want {
			t.Fatalf("KindForPersona(%q) = %q, want %q", tc.persona, got, tc.want)
		}
	}
}

func TestSemanticFieldsQuizFallsBackToFirstOption(t *testing.T) {
	c := Content{Kind: KindQuiz, Quiz: &QuizContent{
		Question: "Which planet is red?",
		Options:  []string{"Mars", "Venus"},
	}}
	subject, answer := c.SemanticFields()
	if subject != "Which planet is red?" {
		t.Fatalf("subject = %q", subject)
	}
	if answer != "Mars" {
		t.Fatalf("answer = %q, want first option fallback", answer)
	}
}

func TestSemanticFieldsTipUsesFirstTip(t *testing.T) {
	c := Content{Kind: KindTip, Tip: &TipContent{
		Hook: "Sleep better tonight",
		Tips: []string{"No screens after 10pm", "Cool the room"},
	}}
	subject, answer := c.SemanticFields()
	if subject != "Sleep better tonight" {
		t.Fatalf("subject = %q", subject)
	}
	if answer != "No screens after 10pm" {
		t.Fatalf("answer = %q, want first tip", answer)
	}
}

func TestSemanticFieldsMissingVariant(t *testing.T) {
	c := Content{Kind: KindVocab}
	subject, answer := c.SemanticFields()
	if subject != "" || answer != "" {
		t.Fatalf("expected empty fields, got %q / %q", subject, answer)
	}
}
