package lookalike

// homoglyphs maps each Latin letter to its known confusable variants
// across Cyrillic, Greek, Armenian, digit, and punctuation look-alikes.
var homoglyphs = map[rune][]rune{
	'a': {'а', 'ạ', 'ă', 'ą'},
	'e': {'е', 'ė', 'ę', 'ế'},
	'i': {'і', 'ı', 'l', '1', '!'},
	'o': {'о', 'ο', '0', 'ö', 'ø'},
	'p': {'р', 'ρ'},
	'c': {'с', 'ϲ'},
	'y': {'у', 'ỳ', 'ý'},
	'x': {'х', 'χ'},
	'b': {'ь', 'ḃ'},
	'h': {'һ', 'ḣ'},
	'n': {'п', 'ո'},
	'm': {'т', 'ṁ'},
	's': {'ѕ', 'ṡ'},
	'g': {'ɡ', 'ġ'},
	'l': {'1', 'I', 'і', '|'},
}

// isHomoglyphOf reports whether candidate is a known confusable
// substitution for base, checked in both directions (so either letter may
// be treated as the "legitimate" one).
func isHomoglyphOf(candidate, base rune) bool {
	if variants, ok := homoglyphs[base]; ok {
		for _, v := range variants {
			if v == candidate {
				return true
			}
		}
	}
	if variants, ok := homoglyphs[candidate]; ok {
		for _, v := range variants {
			if v == base {
				return true
			}
		}
	}
	return false
}

// scriptOf classifies a rune into a coarse script bucket for mixed-script
// detection, using simple Unicode code-point range membership rather than
// unicode.Is, to keep the Cyrillic/Greek ranges narrow and deliberate.
func scriptOf(r rune) (script string, ok bool) {
	switch {
	case (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я'):
		return "cyrillic", true
	case (r >= 'α' && r <= 'ω') || (r >= 'Α' && r <= 'Ω'):
		return "greek", true
	case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return "latin", true
	default:
		return "", false
	}
}
