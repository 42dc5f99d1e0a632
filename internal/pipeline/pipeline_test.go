package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/justestif/go-wellness-mood/internal/corpus"
	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/pick"
	"github.com/justestif/go-wellness-mood/internal/recommend"
	"github.com/justestif/go-wellness-mood/internal/vertex"
)

// mockGenerator answers mood prompts and affirmation prompts separately.
type mockGenerator struct {
	moodReply        string
	affirmationReply string
	err              error
	calls            atomic.Int32
	lastPrompt       atomic.Value
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (*vertex.Response, error) {
	m.calls.Add(1)
	m.lastPrompt.Store(prompt)
	if m.err != nil {
		return nil, m.err
	}
	if strings.Contains(prompt, "Category:") {
		return vertex.NewResponse(m.moodReply), nil
	}
	return vertex.NewResponse(m.affirmationReply), nil
}

type stubSafety struct {
	verdict mood.Verdict
	score   float64
	err     error
}

func (s stubSafety) Score(string) (mood.Verdict, float64, error) {
	return s.verdict, s.score, s.err
}

// countingRecommender records how often it is asked for a playlist.
type countingRecommender struct {
	url   string
	calls atomic.Int32
}

func (c *countingRecommender) Recommend(context.Context, mood.Label) string {
	c.calls.Add(1)
	return c.url
}

type fixedRecommender string

func (f fixedRecommender) Recommend(context.Context, mood.Label) string { return string(f) }

func candidateJSON(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + quote(text) + `}]}}]}`
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "\n", `\n`) + `"`
}

func TestClassifyMood_UrgentAlwaysWins(t *testing.T) {
	inputs := []string{
		"I want to end my life",
		"sometimes I think about suicide",
		"I might hurt myself tonight",
		"I WANT TO DIE",
	}

	for _, allow := range []bool{true, false} {
		gen := &mockGenerator{moodReply: "Happy", affirmationReply: "Great!"}
		p := New(Config{AllowFallback: allow}, WithGenerator(gen))

		for _, in := range inputs {
			label, err := p.ClassifyMood(context.Background(), in)
			if err != nil {
				t.Fatalf("ClassifyMood(%q) error = %v", in, err)
			}
			if label != mood.Urgent {
				t.Errorf("ClassifyMood(%q) = %s, want Urgent", in, label)
			}

			aff, verdict, err := p.GenerateAffirmation(context.Background(), in, label)
			if err != nil {
				t.Fatalf("GenerateAffirmation(%q) error = %v", in, err)
			}
			if aff != CrisisMessage || verdict != mood.Flag {
				t.Errorf("GenerateAffirmation(%q) = (%q, %s), want crisis/flag", in, aff, verdict)
			}
		}

		if gen.calls.Load() != 0 {
			t.Errorf("allow_fallback=%v: remote called %d times for urgent text", allow, gen.calls.Load())
		}
	}
}

func TestClassifyMood_EmptyIsNeutral(t *testing.T) {
	gen := &mockGenerator{err: errors.New("should not be called")}
	p := New(Config{AllowFallback: false}, WithGenerator(gen))

	for _, in := range []string{"", "   ", "\n\t"} {
		rec, err := p.Analyze(context.Background(), in)
		if err != nil {
			t.Fatalf("Analyze(%q) error = %v", in, err)
		}
		if rec.Mood != mood.Neutral {
			t.Errorf("Analyze(%q) mood = %s, want Neutral", in, rec.Mood)
		}
		if rec.Affirmation != DefaultAffirmation || rec.Safety != mood.Safe {
			t.Errorf("Analyze(%q) = %+v, want default affirmation", in, rec)
		}
	}
	if gen.calls.Load() != 0 {
		t.Errorf("remote called %d times for empty input", gen.calls.Load())
	}
}

func TestClassifyMood_NoFallbackFailsHard(t *testing.T) {
	tests := []struct {
		name     string
		gen      Generator
		wantErr  error
		wantKind string
	}{
		{name: "call fails", gen: &mockGenerator{err: errors.New("deadline")}, wantErr: ErrRemoteCall, wantKind: KindRemoteCall},
		{name: "no text", gen: &mockGenerator{moodReply: `{"candidates":[]}`}, wantErr: ErrNoUsableResponse, wantKind: KindNoUsableResponse},
		{name: "no label", gen: &mockGenerator{moodReply: "I cannot say"}, wantErr: ErrRemoteCall, wantKind: KindRemoteCall},
		{name: "no generator", gen: nil, wantErr: ErrConfiguration, wantKind: KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.gen != nil {
				opts = append(opts, WithGenerator(tt.gen))
			}
			p := New(Config{AllowFallback: false}, opts...)

			label, err := p.ClassifyMood(context.Background(), "I panic before every exam")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ClassifyMood() error = %v, want %v", err, tt.wantErr)
			}
			if label != "" {
				t.Errorf("ClassifyMood() returned label %q alongside error", label)
			}
			if kind := ErrorKind(err); kind != tt.wantKind {
				t.Errorf("ErrorKind() = %q, want %q", kind, tt.wantKind)
			}

			rec, err := p.Analyze(context.Background(), "I panic before every exam")
			if err == nil {
				t.Errorf("Analyze() = %+v, want error", rec)
			}
		})
	}
}

func TestClassifyMood_FallbackHeuristics(t *testing.T) {
	tests := []struct {
		text string
		want mood.Label
	}{
		{"I always panic before exams", mood.Anxious},
		{"I am furious at my brother", mood.Angry},
		{"went for a walk and had lunch", mood.Neutral},
		{"feeling so lonely lately", mood.Sad},
	}

	gen := &mockGenerator{err: errors.New("unavailable")}
	p := New(Config{AllowFallback: true}, WithGenerator(gen))

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := p.ClassifyMood(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ClassifyMood() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyMood() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyMood_Remote(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  mood.Label
	}{
		{name: "exact", reply: candidateJSON("Happy"), want: mood.Happy},
		{name: "direct text", reply: `{"text":"fearful"}`, want: mood.Fearful},
		{name: "wordy", reply: candidateJSON("Category: Sad\n"), want: mood.Sad},
		{name: "plain body", reply: "Angry", want: mood.Angry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{}, WithGenerator(&mockGenerator{moodReply: tt.reply}))
			got, err := p.ClassifyMood(context.Background(), "today was a day")
			if err != nil {
				t.Fatalf("ClassifyMood() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyMood() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyMood_SafetyShortCircuit(t *testing.T) {
	gen := &mockGenerator{moodReply: "Happy"}
	p := New(Config{}, WithGenerator(gen), WithSafety(stubSafety{verdict: mood.Flag, score: 0.5}))

	got, err := p.ClassifyMood(context.Background(), "nothing matters anymore")
	if err != nil {
		t.Fatalf("ClassifyMood() error = %v", err)
	}
	if got != mood.Urgent {
		t.Errorf("ClassifyMood() = %s, want Urgent", got)
	}
	if gen.calls.Load() != 0 {
		t.Error("remote model called after safety flag")
	}

	// A safe or failing classifier lets the remote model decide.
	for _, s := range []stubSafety{{verdict: mood.Safe, score: 0.49}, {err: errors.New("broken")}} {
		p := New(Config{}, WithGenerator(&mockGenerator{moodReply: "Happy"}), WithSafety(s))
		if got, _ := p.ClassifyMood(context.Background(), "nice day"); got != mood.Happy {
			t.Errorf("ClassifyMood() with %+v = %s, want Happy", s, got)
		}
	}
}

func TestGenerateAffirmation_Remote(t *testing.T) {
	long := strings.Repeat("word ", 80)

	tests := []struct {
		name        string
		reply       string
		want        string
		wantVerdict mood.Verdict
	}{
		{name: "first line only", reply: candidateJSON("You are strong.\nSecond line"), want: "You are strong.", wantVerdict: mood.Safe},
		{name: "model output reads urgent", reply: candidateJSON("Maybe you want to die"), want: CrisisMessage, wantVerdict: mood.Flag},
		{name: "truncated", reply: candidateJSON(long), want: strings.TrimSpace(strings.Repeat("word ", 60)) + "...", wantVerdict: mood.Safe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{}, WithGenerator(&mockGenerator{affirmationReply: tt.reply}))
			got, verdict, err := p.GenerateAffirmation(context.Background(), "long week", mood.Sad)
			if err != nil {
				t.Fatalf("GenerateAffirmation() error = %v", err)
			}
			if got != tt.want || verdict != tt.wantVerdict {
				t.Errorf("GenerateAffirmation() = (%q, %s), want (%q, %s)", got, verdict, tt.want, tt.wantVerdict)
			}
			if n := len(strings.Fields(strings.TrimSuffix(got, "..."))); n > MaxAffirmationWords {
				t.Errorf("affirmation has %d words", n)
			}
		})
	}
}

func TestGenerateAffirmation_RedactsPrompt(t *testing.T) {
	gen := &mockGenerator{affirmationReply: "You matter."}
	p := New(Config{}, WithGenerator(gen))

	if _, _, err := p.GenerateAffirmation(context.Background(), "mail me at sam@example.com", mood.Happy); err != nil {
		t.Fatalf("GenerateAffirmation() error = %v", err)
	}
	prompt, _ := gen.lastPrompt.Load().(string)
	if strings.Contains(prompt, "sam@example.com") || !strings.Contains(prompt, "[REDACTED_EMAIL]") {
		t.Errorf("prompt was not redacted: %q", prompt)
	}
}

func TestGenerateAffirmation_Fallback(t *testing.T) {
	failing := &mockGenerator{err: errors.New("unavailable")}

	tests := []struct {
		name        string
		corpus      *corpus.Corpus
		label       mood.Label
		want        string
		wantVerdict mood.Verdict
	}{
		{
			name:        "corpus row",
			corpus:      corpus.New([]corpus.Row{{MoodTag: "sad", Text: "Rest is allowed."}}),
			label:       mood.Sad,
			want:        "Rest is allowed.",
			wantVerdict: mood.Safe,
		},
		{
			name:        "flagged row becomes crisis",
			corpus:      corpus.New([]corpus.Row{{MoodTag: "angry", Text: "bad", Flagged: true}}),
			label:       mood.Angry,
			want:        CrisisMessage,
			wantVerdict: mood.Flag,
		},
		{
			name:        "empty corpus uses default",
			corpus:      nil,
			label:       mood.Happy,
			want:        DefaultAffirmation,
			wantVerdict: mood.Safe,
		},
		{
			name:        "unmatched label samples whole corpus",
			corpus:      corpus.New([]corpus.Row{{MoodTag: "happy", Text: "Keep going."}}),
			label:       mood.Fearful,
			want:        "Keep going.",
			wantVerdict: mood.Safe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{AllowFallback: true},
				WithGenerator(failing),
				WithCorpus(tt.corpus),
				WithPicker(pick.Fixed(0)),
			)
			got, verdict, err := p.GenerateAffirmation(context.Background(), "something", tt.label)
			if err != nil {
				t.Fatalf("GenerateAffirmation() error = %v", err)
			}
			if got != tt.want || verdict != tt.wantVerdict {
				t.Errorf("GenerateAffirmation() = (%q, %s), want (%q, %s)", got, verdict, tt.want, tt.wantVerdict)
			}
		})
	}
}

func TestGenerateAffirmation_NoFallback(t *testing.T) {
	p := New(Config{AllowFallback: false},
		WithGenerator(&mockGenerator{err: errors.New("unavailable")}),
		WithCorpus(corpus.New([]corpus.Row{{MoodTag: "sad", Text: "x"}})),
	)
	got, _, err := p.GenerateAffirmation(context.Background(), "something", mood.Sad)
	if !errors.Is(err, ErrRemoteCall) {
		t.Errorf("GenerateAffirmation() error = %v, want ErrRemoteCall", err)
	}
	if got != "" {
		t.Errorf("GenerateAffirmation() returned %q alongside error", got)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	gen := &mockGenerator{moodReply: candidateJSON("Anxious"), affirmationReply: candidateJSON("Breathe, you've got this.")}
	p := New(Config{}, WithGenerator(gen))

	first, err := p.Analyze(context.Background(), "exam tomorrow")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := p.Analyze(context.Background(), "exam tomorrow")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if first.Mood != second.Mood || first.Affirmation != second.Affirmation {
		t.Errorf("runs differ: %+v vs %+v", first, second)
	}
	if first.Mood != mood.Anxious || first.Safety != mood.Safe || first.Text != "exam tomorrow" {
		t.Errorf("Analyze() = %+v", first)
	}
	if first.PlaylistURL == "" {
		t.Error("Analyze() left playlist empty")
	}
}

func TestAssemble(t *testing.T) {
	p := New(Config{}, WithRecommender(fixedRecommender("https://example.test/x")))

	rec := p.Assemble(context.Background(), "hi", mood.Label("Weird"), "ok", mood.Unknown)
	if rec.Mood != mood.Neutral {
		t.Errorf("Mood = %s, want Neutral", rec.Mood)
	}
	if rec.Safety != mood.Safe {
		t.Errorf("Safety = %s, want safe", rec.Safety)
	}
	if rec.PlaylistURL != "https://example.test/x" {
		t.Errorf("PlaylistURL = %q", rec.PlaylistURL)
	}

	rec = p.Assemble(context.Background(), "hi", mood.Urgent, CrisisMessage, mood.Flag)
	if rec.Safety != mood.Flag {
		t.Errorf("Safety = %s, want flag", rec.Safety)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"a b c", 5, "a b c"},
		{"a b c d", 2, "a b..."},
		{"  spaced  ", 3, "spaced"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrConfiguration, KindConfiguration},
		{errors.Join(errors.New("x"), ErrRemoteCall), KindRemoteCall},
		{ErrNoUsableResponse, KindNoUsableResponse},
		{context.DeadlineExceeded, KindRemoteCall},
		{context.Canceled, KindRemoteCall},
		{fmt.Errorf("generating affirmation: %w", context.Canceled), KindRemoteCall},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAnalyze_EmptyTextSkipsRemoteSources(t *testing.T) {
	gen := &mockGenerator{moodReply: candidateJSON("Happy"), affirmationReply: candidateJSON("Enjoy the sun.")}
	rec := &countingRecommender{url: "https://example.test/remote"}
	p := New(Config{}, WithGenerator(gen), WithRecommender(rec), WithPicker(pick.Fixed(0)))

	got, err := p.Analyze(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if gen.calls.Load() != 0 || rec.calls.Load() != 0 {
		t.Errorf("external calls = (model %d, recommender %d), want none", gen.calls.Load(), rec.calls.Load())
	}
	want := recommend.DefaultCatalog()[mood.Neutral][0]
	if got.PlaylistURL != want {
		t.Errorf("PlaylistURL = %q, want static %q", got.PlaylistURL, want)
	}

	if _, err := p.Analyze(context.Background(), "a sunny walk"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if rec.calls.Load() != 1 {
		t.Errorf("recommender calls = %d, want 1 for non-empty text", rec.calls.Load())
	}
}

func TestGenerateAffirmation_BlockedReplyReportsFinishReason(t *testing.T) {
	gen := &mockGenerator{affirmationReply: `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`}
	p := New(Config{}, WithGenerator(gen))

	_, _, err := p.GenerateAffirmation(context.Background(), "rough week", mood.Sad)
	if !errors.Is(err, ErrNoUsableResponse) {
		t.Fatalf("error = %v, want ErrNoUsableResponse", err)
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("error = %q, want finish reason in message", err)
	}
}
