package dto

// ExtractedData holds the fields recovered from a student ID card
type ExtractedData struct {
	Name             string `json:"name" yaml:"name"`
	RollNo           string `json:"rollNo" yaml:"rollNo"`
	Department       string `json:"department" yaml:"department"`
	Batch            string `json:"batch" yaml:"batch"`
	DegreeProgram    string `json:"degreeProgram" yaml:"degreeProgram"`
	UniversityHeader string `json:"universityHeader" yaml:"universityHeader"`
	CardType         string `json:"cardType" yaml:"cardType"`
}

// ValidationResult lists every rule an ExtractedData record violates
type ValidationResult struct {
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors" yaml:"errors"`
}
