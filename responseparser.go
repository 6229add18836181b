package quizsmith

import (
	"regexp"
	"strings"
)

// questionMarker splits a completion into candidate blocks
var questionMarker = regexp.MustCompile(`Question\s*\d+`)

const (
	minBlockLines = 6
	answerMarker  = "Answer:"
)

// ParseResponse extracts the well-formed multiple choice questions from a
// model completion. Blocks that are missing options or a usable answer line
// are dropped. Ids are assigned by output position starting at 1.
func ParseResponse(text string) []QuestionRecord {
	if strings.TrimSpace(text) == "" {
		return []QuestionRecord{}
	}

	// anything before the first marker is commentary
	blocks := questionMarker.Split(text, -1)[1:]

	questions := make([]QuestionRecord, 0, len(blocks))
	for _, block := range blocks {
		q, ok := parseBlock(block)
		if !ok {
			VerboseLog("Dropping malformed question block (%d bytes)", len(block))
			continue
		}
		q.ID = len(questions) + 1
		questions = append(questions, q)
	}
	return questions
}

// parseBlock turns the text following one question marker into a record.
// The second result is false when the block lacks the required structure.
func parseBlock(block string) (QuestionRecord, bool) {
	block = trimMarkerRemnant(block)

	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < minBlockLines {
		return QuestionRecord{}, false
	}

	prompt := strings.TrimSpace(strings.TrimRight(lines[0], ":* \t"))
	if prompt == "" {
		return QuestionRecord{}, false
	}

	var (
		options    Options
		seen       = make(map[Label]bool, len(Labels))
		optionRows int
		answerLine string
	)
	for _, line := range lines[1:] {
		if label, text, ok := cutOption(line); ok {
			optionRows++
			if seen[label] || text == "" {
				return QuestionRecord{}, false
			}
			seen[label] = true
			options.set(label, text)
			continue
		}
		if answerLine == "" && strings.Contains(line, answerMarker) {
			answerLine = line
		}
	}
	if optionRows != len(Labels) || answerLine == "" {
		return QuestionRecord{}, false
	}

	letter := answerLine[strings.LastIndex(answerLine, ":")+1:]
	correct := Label(strings.ToUpper(strings.TrimSpace(letter)))
	if !correct.Valid() {
		return QuestionRecord{}, false
	}

	return QuestionRecord{
		Prompt:       prompt,
		Options:      options,
		CorrectLabel: correct,
	}, true
}

// trimMarkerRemnant removes what is left of a "Question N" marker, such as
// ":", "**" or a "." or ")" followed by a space, without touching the stem
func trimMarkerRemnant(block string) string {
	block = strings.TrimLeft(block, ":* \t")
	if block != "" && strings.ContainsRune(".)-", rune(block[0])) {
		rest := block[1:]
		if rest == "" || strings.ContainsRune(" \t\r\n*:", rune(rest[0])) {
			block = strings.TrimLeft(rest, ":*")
		}
	}
	return block
}

// cutOption splits an "A) text" line into its label and text
func cutOption(line string) (Label, string, bool) {
	for _, l := range Labels {
		if rest, ok := strings.CutPrefix(line, string(l)+")"); ok {
			return l, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}
