package model

import (
	"strings"
)

// Class is an entry of the static class table.
type Class struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Grade int    `json:"grade"`
}

// Classes is the static class lookup table: grades 6 to 9, sections a to e.
var Classes = buildClasses()

var classByID = func() map[string]Class {
	m := make(map[string]Class, len(Classes))
	for _, c := range Classes {
		m[c.ID] = c
	}
	return m
}()

func buildClasses() []Class {
	var out []Class
	for grade := 6; grade <= 9; grade++ {
		for _, section := range "abcde" {
			id := string(rune('0'+grade)) + string(section)
			out = append(out, Class{
				ID:    id,
				Name:  "Lớp " + strings.ToUpper(id),
				Grade: grade,
			})
		}
	}
	return out
}

// NormalizeClassID lower-cases a class reference and strips all spaces,
// so "7 A" and "7a" name the same class.
func NormalizeClassID(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

// LookupClass resolves a class reference through the static table.
func LookupClass(id string) (Class, bool) {
	c, ok := classByID[NormalizeClassID(id)]
	return c, ok
}

// ClassName returns the display name of a class reference, the raw id when
// the class is not in the table, or "" for an empty reference.
func ClassName(id string) string {
	if id == "" {
		return ""
	}
	if c, ok := LookupClass(id); ok {
		return c.Name
	}
	return id
}
