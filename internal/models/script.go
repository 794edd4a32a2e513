package models

import (
	"fmt"
	"strings"
)

// StageNames are the four narrative stages every script carries, in order:
// opening, development, twist, resolution.
var StageNames = [4]string{"起", "承", "轉", "合"}

// Stage is one narrative stage of a script
type Stage struct {
	Name     string `json:"name"`
	Points   string `json:"points"`
	Dialogue string `json:"dialogue"`
}

// Script represents one catalog item. Scripts are immutable within a session;
// the authoritative copy lives in the external sheet.
type Script struct {
	ID               string   `json:"id"`
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	ProjectNote      string   `json:"project_note,omitempty"`
	VideoDescription string   `json:"video_description,omitempty"`
	Requirements     string   `json:"requirements,omitempty"`
	MaterialLink     string   `json:"material_link,omitempty"`
	Stages           [4]Stage `json:"stages"`
}

// categoryCodes maps each catalog category to its short code used for
// identifier generation.
var categoryCodes = map[string]string{
	"剪髮": "CUT",
	"染髮": "COLOR",
	"燙髮": "PERM",
	"護髮": "CARE",
	"頭皮": "SCALP",
	"造型": "STYLE",
	"經營": "BUSINESS",
	"其他": "OTHER",
}

// fallbackCategoryCode is used for categories with no mapping
const fallbackCategoryCode = "OTHER"

// CategoryOptions returns the fixed category domain in a stable order
func CategoryOptions() []string {
	return []string{"剪髮", "染髮", "燙髮", "護髮", "頭皮", "造型", "經營", "其他"}
}

// CategoryCode returns the short code for a category, falling back to the
// generic code for unmapped categories
func CategoryCode(category string) string {
	if code, ok := categoryCodes[category]; ok {
		return code
	}
	return fallbackCategoryCode
}

// IDPrefix returns the 3-letter uppercase identifier prefix for a category
func IDPrefix(category string) string {
	code := strings.ToUpper(CategoryCode(category))
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}

// NextScriptID generates an identifier of the form PREFIX-NNN, where NNN is
// the count of existing scripts sharing the prefix plus one, zero-padded.
func NextScriptID(category string, existing []Script) string {
	prefix := IDPrefix(category)
	count := 0
	for _, s := range existing {
		if strings.HasPrefix(s.ID, prefix) {
			count++
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, count+1)
}
