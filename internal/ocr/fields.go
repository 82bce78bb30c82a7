package ocr

import (
	"strings"
	"unicode"
)

// Fields are the structured values read off a certificate image
type Fields struct {
	StudentName string `json:"student_name,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	Marks       string `json:"marks,omitempty"`
	CertNumber  string `json:"cert_number,omitempty"`
}

var fieldKeywords = []struct {
	keywords []string
	set      func(*Fields, string)
	get      func(*Fields) string
}{
	{
		keywords: []string{"student name:", "candidate name:", "name:"},
		set:      func(f *Fields, v string) { f.StudentName = v },
		get:      func(f *Fields) string { return f.StudentName },
	},
	{
		keywords: []string{"roll no:", "roll number:", "reg no:", "registration no:"},
		set:      func(f *Fields, v string) { f.RollNumber = v },
		get:      func(f *Fields) string { return f.RollNumber },
	},
	{
		keywords: []string{"marks:", "grade:", "cgpa:", "percentage:"},
		set:      func(f *Fields, v string) { f.Marks = v },
		get:      func(f *Fields) string { return f.Marks },
	},
	{
		keywords: []string{"cert no:", "certificate no:", "certificate number:", "serial no:"},
		set:      func(f *Fields, v string) { f.CertNumber = v },
		get:      func(f *Fields) string { return f.CertNumber },
	},
}

// ParseFields scans OCR text line by line for "keyword: value" pairs.
// A keyword must start the line, after any list marker such as "1." or "-".
// The first non-empty value for a field wins.
func ParseFields(text string) Fields {
	var f Fields
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimLeftFunc(raw, isListMarker)
		lower := strings.ToLower(line)
		if !strings.Contains(line, ":") {
			continue
		}
		for _, fk := range fieldKeywords {
			if !hasAnyPrefix(lower, fk.keywords) {
				continue
			}
			if fk.get(&f) == "" {
				value := strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
				if value != "" {
					fk.set(&f, value)
				}
			}
			break
		}
	}
	return f
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isListMarker(r rune) bool {
	return !unicode.IsLetter(r)
}
