package idcard

import (
	"strings"
)

const (
	minDegreeLineLength = 5
	maxDegreeLineLength = 59
)

// extractDegreeProgram returns the upper-cased degree program printed on the
// card, or "" when none is found.
func (p *Parser) extractDegreeProgram(text string) string {
	for _, line := range splitLines(text) {
		if len(line) < minDegreeLineLength || len(line) > maxDegreeLineLength {
			continue
		}
		if rollMarkerRe.MatchString(line) || !p.degreeLineRe.MatchString(line) {
			continue
		}
		return normalizeText(line)
	}

	if p.degreeFieldRe == nil {
		return ""
	}
	m := p.degreeFieldRe.FindString(text)
	if m == "" {
		return ""
	}
	degree := normalizeText(m)
	if strings.Contains(degree, "(") && !strings.HasSuffix(degree, ")") {
		degree += ")"
	}
	return degree
}

// departmentName prefers a known field named in the degree program, then the
// abbreviation table, then the raw code. Other parenthesized text such as
// "(HONS)" or "(MORNING)" is not a department.
func (p *Parser) departmentName(degree, code string) string {
	for _, m := range p.deptNameRe.FindAllStringSubmatch(degree, -1) {
		found := strings.TrimSpace(m[1])
		if found == "" && len(m) > 2 {
			found = strings.TrimSpace(m[2])
		}
		found = strings.ToUpper(whitespaceRe.ReplaceAllString(found, " "))
		if name, ok := p.departments[found]; ok {
			return name
		}
		if p.knownFields[found] {
			return FormatName(found)
		}
	}
	if name, ok := p.departments[code]; ok {
		return name
	}
	return code
}
