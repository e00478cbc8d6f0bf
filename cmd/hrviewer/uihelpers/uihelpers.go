package uihelpers

import (
	"strings"
	"unicode"
)

// MaxRecent is how many cluster names the viewer remembers.
const MaxRecent = 10

// ComputeChartDimensions applies width/height clamp rules used for the diagram.
// Input: available canvas width and height. Returns the image size to render.
func ComputeChartDimensions(rawW, rawH int) (int, int) {
	// ~95% of the width, minus a small margin for padding
	w := rawW*95/100 - 12
	if w < 640 {
		w = 640
	}
	// leave room for the input bar and status line
	h := rawH - 140
	if h < 400 {
		h = 400
	}
	// keep the figure from getting much taller than 10:8
	if maxH := w * 4 / 5; h > maxH {
		h = maxH
	}
	return w, h
}

// ParseRecent splits the stored preference value into names, dropping blanks.
func ParseRecent(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AddRecent puts name first, removes earlier occurrences (case-insensitive) and caps the list.
func AddRecent(list []string, name string, max int) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return list
	}
	out := []string{name}
	for _, f := range list {
		if !strings.EqualFold(f, name) && len(out) < max {
			out = append(out, f)
		}
	}
	return out
}

// FormatRecent is the inverse of ParseRecent.
func FormatRecent(list []string) string { return strings.Join(list, "\n") }

// ExportFileName derives a default PNG name such as "hr_ngc_2516.png".
func ExportFileName(cluster string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(cluster)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "hr_diagram.png"
	}
	return "hr_" + name + ".png"
}

// TruncateLabel shortens s to n runes with a trailing ellipsis.
func TruncateLabel(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
