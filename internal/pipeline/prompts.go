package pipeline

import (
	"fmt"
	"strings"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

func moodPrompt(text string) string {
	names := make([]string, 0, len(mood.Labels()))
	for _, l := range mood.Labels() {
		names = append(names, string(l))
	}

	return fmt.Sprintf("You are an empathetic classifier. Classify the user's text into ONE of: %s. "+
		"Return only the single category name (no additional text).\n\n"+
		"User text: %q\nCategory:", strings.Join(names, ", "), text)
}

func affirmationPrompt(text string, label mood.Label) string {
	return fmt.Sprintf("You are an empathetic youth support assistant. The user's mood is '%s'. "+
		"Create a short positive affirmation tailored to the user's input. Maximum 25 words. "+
		"Do NOT provide medical diagnoses or instructions. "+
		"If the user expresses self-harm, respond with a supportive helpline suggestion instead.\n\n"+
		"User text: %q\nAffirmation:", label, text)
}
