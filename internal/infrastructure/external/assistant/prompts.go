package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// ══════════════════════════════════════════════════════════════════════════════

// All prompts request Indonesian output; the product's audience is
// Indonesian students. Structured outputs are requested as bare JSON
// arrays, with tolerant parsing on the way back.

// breakdownPrompt asks for a plan of small tasks for a larger goal.
func breakdownPrompt(userPrompt, displayName string, now time.Time) string {
	local := timeutil.ToJakarta(now)
	if displayName == "" {
		displayName = "Student"
	}

	return fmt.Sprintf(`You are a smart student planner assistant acting as a personal mentor for %s.
Current Date: %s (Day of week: %s).

Your Goal: Analyze the user's input and break it down into smaller, actionable tasks in INDONESIAN language.
Tone: Friendly, encouraging, and productive.

Return ONLY a JSON array of objects. Do not include markdown formatting or backticks.
Each object should have:
- title: (string) A concise task name in Indonesian
- daysFromNow: (number) How many days from today it should be due (0 for today, 1 for tomorrow, etc.)
- description: (string) A very short tip for this task in Indonesian

User Prompt: %q`, displayName, local.Format("Mon Jan 2 2006"), timeutil.DayName(local), userPrompt)
}

// quizPrompt asks for multiple-choice questions over the note content.
func quizPrompt(noteContent string, p *profile.Profile) string {
	major, focusArea, difficulty := "General", "General", "Medium"
	if p != nil {
		if p.Major != "" {
			major = p.Major
		}
		if p.CurrentFocus != "" {
			focusArea = p.CurrentFocus
		}
		if p.LearningStyle == profile.StyleAcademic {
			difficulty = "Hard"
		}
	}

	return fmt.Sprintf(`Based on the following study notes, create a quiz with 5 multiple-choice questions.
Language: INDONESIAN.

Return ONLY a JSON array of objects. Do not use markdown backticks.

User Context:
- Major: %s
- Focus: %s
- Difficulty: %s

Format:
[
  {
    "question": "Question text here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctAnswer": 0
  }
]

Notes:
%q`, major, focusArea, difficulty, noteContent)
}

// grammarPrompt asks for an in-place cleanup of the note text.
func grammarPrompt(content string) string {
	return fmt.Sprintf(`Act as a professional editor.
Fix the grammar, spelling, and punctuation of the following text (detect language, output in same language but prefer Indonesian if ambiguous).
Improve clarity and flow but keep the original meaning and tone.
Return ONLY the corrected text.

Text: %q`, content)
}

// summarizePrompt asks for bullet points, tied to the user's studies.
func summarizePrompt(content string, p *profile.Profile) string {
	major, focusArea, tone := "General", "General Study", "Neutral"
	if p != nil {
		if p.Major != "" {
			major = p.Major
		}
		if p.CurrentFocus != "" {
			focusArea = p.CurrentFocus
		}
		if p.LearningStyle.IsValid() {
			tone = string(p.LearningStyle)
		}
	}

	return fmt.Sprintf(`Summarize the following text into concise bullet points in INDONESIAN.
Connect the topic to the user's major (%s) if relevant.
Capture the key ideas and main takeaways.
User Focus: %s
Tone: %s
Return ONLY the bullet points.

Text: %q`, major, focusArea, tone, content)
}

// motivationPrompt asks for one fresh short quote.
func motivationPrompt(bucket timeutil.TimeOfDay, displayName string) string {
	if displayName == "" {
		displayName = "Student"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a short, inspiring, and unique motivational quote for a student named %s.\n", displayName)
	fmt.Fprintf(&b, "The time of day is: %s.\n", bucket)
	b.WriteString("Language: INDONESIAN.\n")
	b.WriteString("The quote should be concise (max 15 words).\n")
	b.WriteString("Do not use famous quotes, generate a new one specifically for this student.\n")
	b.WriteString("Return ONLY the quote text, no quotes or explanations.")
	return b.String()
}
