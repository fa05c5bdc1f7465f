package idcard

import (
	"regexp"
	"strings"
)

var (
	// "Name:" or "ame;" when OCR drops the leading N. Not preceded by a letter,
	// so SURNAME and similar labels don't match.
	nameLabelRe = regexp.MustCompile(`(?i)(?:^|[^A-Z])(N?AME)\s*[:;]\s*(.*)$`)

	labelJunkRe       = regexp.MustCompile(`(?i)^\s*(?:ID|#|\d)`)
	numericLineRe     = regexp.MustCompile(`^\d+$`)
	capitalizedWordRe = regexp.MustCompile(`^[A-Z][A-Za-z]*$`)
	trailingNameRe    = regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:[ \t]+[A-Z][A-Za-z]+){0,3})\s*$`)
)

const (
	minNameLength = 3
	maxNameLength = 50
	maxNameWords  = 4
)

type nameStrategy struct {
	name string
	find func(lines []string, text string) (string, bool)
}

func (p *Parser) extractName(text string) (string, bool) {
	lines := splitLines(text)
	for _, s := range p.nameStrategies {
		name, ok := s.find(lines, text)
		if !ok || len(name) < minNameLength {
			p.logger.Debug("name strategy missed", "strategy", s.name)
			continue
		}
		p.logger.Debug("name strategy matched", "strategy", s.name)
		return name, true
	}
	return "", false
}

// isKeywordLine reports whether a line is card furniture rather than a person's name.
func (p *Parser) isKeywordLine(line string) bool {
	if p.keywordRe != nil && p.keywordRe.MatchString(line) {
		return true
	}
	if p.fieldRe != nil && p.fieldRe.MatchString(line) {
		return true
	}
	if rollMarkerRe.MatchString(line) {
		return true
	}
	return p.degreeLineRe.MatchString(strings.TrimSpace(line))
}

// labeledName looks for a "Name:" label and reads the value after it, or on the
// next line when the label stands alone.
func (p *Parser) labeledName(lines []string, _ string) (string, bool) {
	for i, line := range lines {
		m := nameLabelRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		if p.labelExclRe != nil && p.labelExclRe.MatchString(line[:m[2]]) {
			continue
		}

		value := line[m[4]:m[5]]
		if lettersOnly(value) == "" {
			if i+1 >= len(lines) {
				continue
			}
			value = lines[i+1]
		}
		if name, ok := p.labelValue(value); ok {
			return name, true
		}
	}
	return "", false
}

func (p *Parser) labelValue(value string) (string, bool) {
	if labelJunkRe.MatchString(value) || p.isKeywordLine(value) {
		return "", false
	}
	clean := lettersOnly(value)
	if len(clean) < minNameLength || len(clean) > maxNameLength {
		return "", false
	}
	words := strings.Fields(clean)
	if len(words) > maxNameWords {
		return "", false
	}
	for _, w := range words {
		if len(w) < 2 {
			return "", false
		}
	}
	return FormatName(clean), true
}

// capitalizedLine takes the first line that looks like nothing but a short
// run of capitalized words.
func (p *Parser) capitalizedLine(lines []string, _ string) (string, bool) {
	for _, line := range lines {
		if len(line) < minNameLength || len(line) > maxNameLength {
			continue
		}
		if numericLineRe.MatchString(line) || p.isKeywordLine(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) == 0 || len(words) > maxNameWords {
			continue
		}
		if !allCapitalized(words) {
			continue
		}
		return FormatName(line), true
	}
	return "", false
}

func allCapitalized(words []string) bool {
	for _, w := range words {
		if len(w) < 2 || len(w) > 15 || !capitalizedWordRe.MatchString(w) {
			return false
		}
	}
	return true
}

// nameBeforeRoll takes the capitalized words printed right before the roll
// number, dropping everything up to the last card keyword in that run.
func (p *Parser) nameBeforeRoll(_ []string, text string) (string, bool) {
	loc := rollMarkerRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	m := trailingNameRe.FindStringSubmatch(text[:loc[0]])
	if m == nil {
		return "", false
	}

	words := strings.Fields(m[1])
	for i := len(words) - 1; i >= 0; i-- {
		if p.isKeywordLine(words[i]) {
			words = words[i+1:]
			break
		}
	}
	candidate := strings.Join(words, " ")
	if len(candidate) < minNameLength || len(candidate) > maxNameLength {
		return "", false
	}
	return FormatName(candidate), true
}
