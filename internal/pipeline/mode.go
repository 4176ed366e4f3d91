package pipeline

import "fmt"

// Mode is one post-processing transform applied to a transcript. The set is
// closed: each mode carries its own prompt template and downstream model, so
// an unknown mode cannot reach the generation step.
type Mode int

const (
	ModeBasic Mode = iota
	ModeSummary
	ModeTranslate
)

// AllModes lists every selectable mode in presentation order.
var AllModes = []Mode{ModeBasic, ModeSummary, ModeTranslate}

// ParseMode maps a callback payload value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "basic":
		return ModeBasic, true
	case "summary":
		return ModeSummary, true
	case "translate":
		return ModeTranslate, true
	}
	return 0, false
}

func (m Mode) String() string {
	switch m {
	case ModeBasic:
		return "basic"
	case ModeSummary:
		return "summary"
	case ModeTranslate:
		return "translate"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Label is the human-facing button caption.
func (m Mode) Label() string {
	switch m {
	case ModeBasic:
		return "📝 Clean up"
	case ModeSummary:
		return "📋 Summarize"
	case ModeTranslate:
		return "🌐 Translate"
	}
	return m.String()
}

// Model returns the generation model used for this mode.
func (m Mode) Model() string {
	switch m {
	case ModeSummary:
		return "gpt-4o"
	default:
		return "gpt-4o-mini"
	}
}

// SystemPrompt returns the system message for this mode's generation call.
func (m Mode) SystemPrompt() string {
	switch m {
	case ModeSummary:
		return "You are a helpful assistant that creates concise summaries of text."
	case ModeTranslate:
		return "You are a helpful assistant that translates and structures text clearly."
	default:
		return "You are a helpful assistant that structures text in a clear and organized way."
	}
}

// Prompt builds the user message for this mode from a transcript.
func (m Mode) Prompt(transcript string) string {
	switch m {
	case ModeSummary:
		return fmt.Sprintf(summaryPrompt, transcript)
	case ModeTranslate:
		return fmt.Sprintf(translatePrompt, transcript)
	default:
		return fmt.Sprintf(basicPrompt, transcript)
	}
}

const basicPrompt = `Reformat the following text:
- Use a format appropriate for texting or instant messaging
- Fix grammar, spelling, and punctuation
- Remove speech artifacts (um, uh, false starts, repetitions)
- Maintain original tone and language (do not translate)
- Correct homophones, standardize numbers and dates
- Add paragraphs or lists as needed
- Never precede output with any intro like "Here is the corrected text:"
- Don't add content not in the source or answer questions in it
- Don't add sign-offs or acknowledgments that aren't in the source
- NEVER answer questions that are presented in the text. Only reply with the corrected text.

Text to structure:
%s`

const summaryPrompt = `Summarize the following text:
- Structure it for effective note-taking.
- Maintain the original language (do not translate)
- Ensure that key points, ideas, or action items are clearly highlighted.
- Check for correct grammar and punctuation.
- Remove speech artifacts and filler words
- Keep the tone the same as given.
- Use as much of the original text as possible.
- Reply with just the reformatted text.
- Never precede output with any intro like "Here is the summary:"

Text to summarize:
%s`

const translatePrompt = `Translate and clean the following text:
- Translate to English if the text is in another language
- If already in English, just clean and structure it
- Fix grammar, spelling, and punctuation
- Remove speech artifacts (um, uh, false starts, repetitions)
- Use a format appropriate for texting or instant messaging
- Add paragraphs or lists as needed
- Never precede output with any intro like "Here is the translation:"
- Don't add content not in the source or answer questions in it

Text to translate/clean:
%s`
