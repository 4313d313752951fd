package speech

import (
	"strings"
	"unicode"
)

// SplitText breaks text into sentences. A sentence ends after one of
// 。！？；!?; or at a line break; fragments are trimmed and empty ones dropped.
func SplitText(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range text {
		switch r {
		case '\n', '\r':
			flush()
		case '。', '！', '？', '；', '!', '?', ';':
			current.WriteRune(r)
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// keepPunctuation is the Chinese punctuation that survives OCR filtering.
const keepPunctuation = `。，；：？！"'（）《》【】、—…·`

// filterChinese keeps CJK ideographs and Chinese punctuation on each line,
// trims the lines and drops the empty ones.
func filterChinese(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		filtered := strings.Map(func(r rune) rune {
			if isCommonIdeograph(r) || strings.ContainsRune(keepPunctuation, r) {
				return r
			}
			return -1
		}, line)
		if filtered = strings.TrimFunc(filtered, unicode.IsSpace); filtered != "" {
			kept = append(kept, filtered)
		}
	}
	return strings.Join(kept, "\n")
}

// isCommonIdeograph reports whether r is in the CJK Unified Ideographs block
// U+4E00..U+9FA5.
func isCommonIdeograph(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}
