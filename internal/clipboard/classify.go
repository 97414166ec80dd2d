package clipboard

import (
	"regexp"
	"strings"
)

// Whitespace and line-terminator classes spelled out so that non-breaking
// and other Unicode spaces count as whitespace, and "." never crosses a line
// terminator, including a lone \r.
const (
	ws              = `[\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`
	notEOL          = `[^\n\r\x{2028}\x{2029}]`
	caseInsensitive = "(?i)"
)

func code(expr string) *regexp.Regexp {
	expr = strings.ReplaceAll(expr, `\s`, ws)
	expr = strings.ReplaceAll(expr, `.*`, notEOL+`*`)
	return regexp.MustCompile(expr)
}

// codePatterns are syntactic hints that a snippet is source code. Matching
// any one of them is enough.
var codePatterns = []*regexp.Regexp{
	code(`function\s+\w+\s*\(`),
	code(`if\s*\(.*\)\s*\{`),
	code(`for\s*\(.*\)\s*\{`),
	code(`while\s*\(.*\)\s*\{`),
	code(`import\s+.*from`),
	code(`require\s*\(`),
	code(`console\.log`),
	code(`class\s+\w+`),
	code(`def\s+\w+`),
	code(`public\s+class`),
	code(`private\s+\w+`),
	code(`protected\s+\w+`),
	code(caseInsensitive + `<html>`),
	code(caseInsensitive + `<!DOCTYPE`),
	code(caseInsensitive + `<script>`),
	code(caseInsensitive + `<style>`),
}

// DetectCode reports whether text looks like source code
func DetectCode(text string) bool {
	for _, p := range codePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// LanguageRule maps a substring heuristic to a language
type LanguageRule struct {
	Name     string
	Match    func(text string) bool
	Language Language
}

func containsAll(subs ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range subs {
			if !strings.Contains(text, s) {
				return false
			}
		}
		return true
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range subs {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}
}

// LanguageRules is evaluated in order and the first match wins, so the
// generic function-with-braces rule must stay last.
//
// Text holding both "function" and "<script>" without console.log or
// import/from is tagged javascript by the script rule, while "<html>"
// pages are tagged html even if they contain scripts.
var LanguageRules = []LanguageRule{
	{Name: "js-console", Match: containsAll("function", "console.log"), Language: LanguageJavaScript},
	{Name: "js-import", Match: containsAll("import", "from"), Language: LanguageJavaScript},
	{Name: "python-def", Match: containsAll("def ", ":"), Language: LanguagePython},
	{Name: "java-modifiers", Match: containsAny("public class", "private "), Language: LanguageJava},
	{Name: "html-document", Match: containsAny("<html>", "<!DOCTYPE"), Language: LanguageHTML},
	{Name: "js-script-tag", Match: containsAll("<script>"), Language: LanguageJavaScript},
	{Name: "css-style-tag", Match: containsAll("<style>"), Language: LanguageCSS},
	{Name: "js-function", Match: containsAll("function", "{"), Language: LanguageJavaScript},
}

// DetectLanguage guesses the language of a code snippet, falling back to
// LanguageText when no rule matches.
func DetectLanguage(text string) Language {
	return detectLanguage(LanguageRules, text)
}

func detectLanguage(rules []LanguageRule, text string) Language {
	for _, r := range rules {
		if r.Match(text) {
			return r.Language
		}
	}
	return LanguageText
}
