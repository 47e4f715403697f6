package wikipedia

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// binomialPattern matches a parenthesised binomial or trinomial such as
// "(Centropomus undecimalis)".
var binomialPattern = regexp.MustCompile(`\(([A-Z][a-z]+(?:\s[a-z]+){1,2})\)`)

// ExtractScientificName returns the first parenthesised binomial in text.
func ExtractScientificName(text string) (string, bool) {
	m := binomialPattern.FindStringSubmatch(text)
	if m == nil || !strings.Contains(m[1], " ") {
		return "", false
	}
	return m[1], true
}

// italicPattern matches a bare binomial inside an italic element.
var italicPattern = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[a-z]+){1,2}$`)

// ScientificNameFromHTML returns the first italic text of extractHTML that
// looks like a binomial. Summaries usually italicise the scientific name even
// when the plain extract lacks parentheses.
func ScientificNameFromHTML(extractHTML string) (string, bool) {
	if extractHTML == "" {
		return "", false
	}
	doc, err := html.Parse(strings.NewReader(extractHTML))
	if err != nil {
		return "", false
	}

	var found string
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if found != "" {
			return
		}
		if node.Type == html.ElementNode && (node.Data == "i" || node.Data == "em") {
			candidate := strings.Join(strings.Fields(textContent(node)), " ")
			if italicPattern.MatchString(candidate) {
				found = candidate
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(doc)

	return found, found != ""
}

func textContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(textContent(child))
	}
	return b.String()
}
