package idcard

import (
	"fmt"
	"regexp"
	"time"
)

// Card markers attached to every successfully parsed record.
const (
	UniversityHeader = "UNIVERSITY OF SINDH"
	CardType         = "STUDENT IDENTITY CARD"
)

// Policy holds the tunables for one institution's card layout. The zero value
// is not usable; start from DefaultPolicy.
type Policy struct {
	// MinTextLength rejects transcripts shorter than this as unreadable.
	MinTextLength int
	// MinConfidence is the OCR confidence (0-100) below which a scan is rejected.
	MinConfidence float64
	// GraduationWindowYears is how many years after admission a batch may still register.
	GraduationWindowYears int

	// InstitutionPattern is matched against the upper-cased, whitespace-collapsed transcript.
	InstitutionPattern string
	// RollPatterns are tried in order. Each must capture year, department and number.
	RollPatterns []string

	// Departments maps roll number department codes to full department names.
	Departments map[string]string
	// Keywords mark lines that can never hold a student name.
	Keywords []string
	// LabelExclusions are words that, before a name label, mean it is someone else's name.
	LabelExclusions []string
	// DegreeTokens are the degree levels a program line may start with.
	DegreeTokens []string
	// FieldsOfStudy are paired with a degree token when no program line is found.
	FieldsOfStudy []string

	UniversityHeader string
	CardType         string

	// Now is the clock used for batch arithmetic.
	Now func() time.Time
}

// DefaultPolicy returns the University of Sindh student card policy.
func DefaultPolicy() Policy {
	return Policy{
		MinTextLength:         20,
		MinConfidence:         70,
		GraduationWindowYears: 6,
		InstitutionPattern:    `UNIVERSITY.*SINDH|SINDH.*UNIVERSITY|UNI.*SINDH`,
		RollPatterns: []string{
			`2K(\d{2})\s*[/\-\s]?\s*([A-Z]{2,4})\s*[/\-\s]?\s*(\d+)`,
			`2K(\d{2})([A-Z]{2,4})(\d+)`,
		},
		Departments: map[string]string{
			"CSE":     "Computer Science",
			"CSM":     "Computer Science",
			"CS":      "Computer Science",
			"EE":      "Electrical Engineering",
			"ME":      "Mechanical Engineering",
			"CE":      "Civil Engineering",
			"BBA":     "Business Administration",
			"MBA":     "Business Administration",
			"ECON":    "Economics",
			"MATH":    "Mathematics",
			"PHYSICS": "Physics",
			"CHEM":    "Chemistry",
			"BIO":     "Biology",
		},
		Keywords: []string{
			"UNIVERSITY", "SINDH", "JAMSHORO", "PAKISTAN",
			"STUDENT", "IDENTITY", "CARD", "CAMPUS",
			"FATHER", "NAME", "ROLL", "DEPARTMENT", "BACHELOR", "MASTER",
			"JANUARY", "FEBRUARY", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
			"DIRECTOR", "ADMISSION", "ADMISSIONS", "VALID", "VALIDITY", "UPTO", "ISSUE", "ISSUED", "EXPIRY",
			"PRE-ENGINEERING", "FIRST YEAR", "SECOND YEAR", "ACADEMIC",
			"ALLAMA", "KAZI", "SIGNATURE", "REGISTRAR",
		},
		LabelExclusions: []string{
			"FATHER", "FATHERS", "GUARDIAN", "GUARDIANS", "MOTHER", "MOTHERS", "HUSBAND", "HUSBANDS",
		},
		DegreeTokens: []string{
			"BS", "MS", "BA", "MA", "BBA", "MBA",
			`B\.S`, `M\.S`, `B\.?COM`, `M\.?COM`, "BACHELOR", "MASTER",
		},
		FieldsOfStudy: []string{
			"COMPUTER SCIENCE", "SOFTWARE ENGINEERING", "INFORMATION TECHNOLOGY",
			"ELECTRICAL ENGINEERING", "MECHANICAL ENGINEERING", "CIVIL ENGINEERING",
			"BUSINESS ADMINISTRATION", "ENGINEERING", "COMMERCE", "ECONOMICS",
			"PHYSICS", "CHEMISTRY", "MATHEMATICS", "BIOLOGY", "ARTS",
		},
		UniversityHeader: UniversityHeader,
		CardType:         CardType,
		Now:              time.Now,
	}
}

// currentYear returns the policy clock's year.
func (p Policy) currentYear() int {
	if p.Now == nil {
		return time.Now().Year()
	}
	return p.Now().Year()
}

// oldestBatchLabel returns the earliest batch still inside the graduation window, e.g. "2K19".
func (p Policy) oldestBatchLabel() string {
	return fmt.Sprintf("2K%02d", (p.currentYear()-p.GraduationWindowYears)%100)
}

// Validate reports configuration mistakes that would make every parse fail.
func (p Policy) Validate() error {
	if p.MinTextLength < 0 {
		return fmt.Errorf("min text length must not be negative")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be within 0-100, got %v", p.MinConfidence)
	}
	if p.GraduationWindowYears < 0 {
		return fmt.Errorf("graduation window must not be negative")
	}
	if _, err := regexp.Compile(p.InstitutionPattern); err != nil {
		return fmt.Errorf("invalid institution pattern: %w", err)
	}
	if len(p.RollPatterns) == 0 {
		return fmt.Errorf("at least one roll number pattern is required")
	}
	for _, rp := range p.RollPatterns {
		re, err := regexp.Compile(rp)
		if err != nil {
			return fmt.Errorf("invalid roll number pattern %q: %w", rp, err)
		}
		if re.NumSubexp() != 3 {
			return fmt.Errorf("roll number pattern %q must capture year, department and number", rp)
		}
	}
	if len(p.DegreeTokens) == 0 {
		return fmt.Errorf("at least one degree token is required")
	}
	return nil
}
