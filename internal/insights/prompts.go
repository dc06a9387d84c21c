package insights

import (
	"fmt"
	"strings"
)

// WeakAreaSystemPrompt instructs the model to classify wrong answers
// into a strict JSON shape the parser can consume.
func WeakAreaSystemPrompt() string {
	return `You are an education analyst for a K-12 learning platform.
You receive a learner's wrong answers from one quiz and identify the
underlying topics the learner is struggling with.

Respond with ONLY a JSON object, no prose and no markdown fences:
{"weak_areas":[{"topic":"<short topic name>","category":"<one of: concept, procedure, vocabulary, application>"}]}

Rules:
- Topics are short noun phrases in lowercase (e.g. "equivalent fractions").
- Merge wrong answers that share a topic into a single entry.
- Return at most 5 entries, most significant first.
- If the wrong answers reveal no coherent topic, return {"weak_areas":[]}.`
}

func BuildWeakAreaUserPrompt(subject, lessonTitle string, gradeLevel int, wrong []WrongAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nLesson: %s\nGrade level: %d\n\nWrong answers:\n", subject, lessonTitle, gradeLevel)
	for i, w := range wrong {
		fmt.Fprintf(&b, "%d. Question: %s\n   Learner answered: %s\n   Correct answer: %s\n",
			i+1, w.Question, w.LearnerAnswer, w.CorrectAnswer)
	}
	return b.String()
}

// FeedbackSystemPrompt frames the learner-facing review message.
func FeedbackSystemPrompt() string {
	return `You are an encouraging tutor on a K-12 learning platform writing
to a child after a quiz. In 2-3 short sentences, plain text only:
- acknowledge the effort,
- name the one or two things to review, based on the wrong answers,
- end with a concrete suggestion for the next step.
Never mention scores you were not given, never scold, and keep the
vocabulary appropriate for the learner's grade.`
}

func BuildFeedbackUserPrompt(subject, lessonTitle string, score int, wrong []WrongAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nLesson: %s\nScore: %d/100\n", subject, lessonTitle, score)
	if len(wrong) == 0 {
		b.WriteString("\nEvery answer was correct.\n")
		return b.String()
	}
	b.WriteString("\nWrong answers:\n")
	for i, w := range wrong {
		fmt.Fprintf(&b, "%d. %s (answered %q, correct %q)\n", i+1, w.Question, w.LearnerAnswer, w.CorrectAnswer)
	}
	return b.String()
}
