package insights

import "strings"

// Sections is the parsed three-part narrative.
type Sections struct {
	Wins            []string
	Losses          []string
	Recommendations []string
}

const maxBulletsPerSection = 6

// ParseSections locates the three section markers in the raw LLM text and
// extracts the bullet lines beneath each. Bullets are normalized (leading
// glyphs stripped), deduplicated, and capped. A missing or empty section
// stays empty; the caller decides whether that is fatal.
func ParseSections(text string) Sections {
	return Sections{
		Wins:            extractBullets(text, winsMarker),
		Losses:          extractBullets(text, lossesMarker),
		Recommendations: extractBullets(text, recommendationsMarker),
	}
}

// extractBullets collects bullet lines between marker and the next section
// header (or end of text).
func extractBullets(text, marker string) []string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return []string{}
	}

	body := text[idx+len(marker):]
	if next := strings.Index(body, "### "); next >= 0 {
		body = body[:next]
	}

	bullets := []string{}
	seen := map[string]struct{}{}

	for _, line := range strings.Split(body, "\n") {
		bullet := normalizeBullet(line)
		if bullet == "" {
			continue
		}
		key := strings.ToLower(bullet)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		bullets = append(bullets, bullet)
		if len(bullets) == maxBulletsPerSection {
			break
		}
	}

	return bullets
}

// normalizeBullet strips leading list glyphs and whitespace. Lines that are
// not bullets (prose, blank, stray headers) return "".
func normalizeBullet(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}

	for _, glyph := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(trimmed, glyph) {
			return strings.TrimSpace(trimmed[len(glyph):])
		}
	}

	// Numbered bullets ("1. ", "2) ") occasionally show up despite the
	// instructions.
	if len(trimmed) > 2 && trimmed[0] >= '0' && trimmed[0] <= '9' {
		rest := trimmed[1:]
		if strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ") {
			return strings.TrimSpace(rest[2:])
		}
	}

	return ""
}
