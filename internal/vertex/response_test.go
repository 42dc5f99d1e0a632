package vertex

import (
	"strings"
	"testing"
)

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "direct text field",
			body:   `{"text": "  Anxious \n"}`,
			want:   "Anxious",
			wantOK: true,
		},
		{
			name:   "direct text wins over candidates",
			body:   `{"text":"Happy","candidates":[{"content":{"parts":[{"text":"Sad"}]}}]}`,
			want:   "Happy",
			wantOK: true,
		},
		{
			name:   "empty direct text falls through to candidates",
			body:   `{"text":"  ","candidates":[{"content":{"parts":[{"text":"Sad"}]}}]}`,
			want:   "Sad",
			wantOK: true,
		},
		{
			name:   "candidate parts are joined",
			body:   `{"candidates":[{"content":{"role":"model","parts":[{"text":"You are "},{"text":"doing well."}]}}]}`,
			want:   "You are doing well.",
			wantOK: true,
		},
		{
			name:   "first candidate without text is skipped",
			body:   `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"},{"content":{"parts":[{"text":"Calm"}]}}]}`,
			want:   "Calm",
			wantOK: true,
		},
		{
			name:   "non-string text field does not hide candidates",
			body:   `{"text":{"nested":true},"candidates":[{"content":{"parts":[{"text":"Sad"}]}}]}`,
			want:   "Sad",
			wantOK: true,
		},
		{
			name:   "numeric text field does not hide candidates",
			body:   `{"text":42,"candidates":[{"content":{"parts":[{"text":"Angry"}]}}]}`,
			want:   "Angry",
			wantOK: true,
		},
		{
			name:   "malformed candidates do not hide direct text",
			body:   `{"text":"Happy","candidates":"oops"}`,
			want:   "Happy",
			wantOK: true,
		},
		{
			name:   "json string literal is coerced",
			body:   `"Neutral"`,
			want:   "Neutral",
			wantOK: true,
		},
		{
			name:   "plain text body is coerced",
			body:   "Fearful\n",
			want:   "Fearful",
			wantOK: true,
		},
		{
			name:   "json object without text yields nothing",
			body:   `{"candidates":[]}`,
			wantOK: false,
		},
		{
			name:   "empty body",
			body:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewResponse(tt.body).Text()
			if ok != tt.wantOK {
				t.Fatalf("Text() ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponse_TextNil(t *testing.T) {
	var r *Response
	if _, ok := r.Text(); ok {
		t.Error("Text() on nil response should report false")
	}
}

func TestCoercedText_TooLong(t *testing.T) {
	body := make([]byte, maxCoercedBytes)
	for i := range body {
		body[i] = 'a'
	}
	if _, ok := CoercedText(&Response{Body: body}); ok {
		t.Error("CoercedText() should ignore oversized bodies")
	}
}

func TestResponse_FinishReasons(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "blocked candidate", body: `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, want: []string{"SAFETY"}},
		{name: "candidate with text", body: `{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`, want: nil},
		{name: "not json", body: "plain", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResponse(tt.body).FinishReasons()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("FinishReasons() = %v, want %v", got, tt.want)
			}
		})
	}
}
