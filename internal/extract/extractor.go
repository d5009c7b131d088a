package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	documentParseErrorTemplateConstant = "failed to parse page: %w"
	contentRenderErrorTemplate         = "failed to render extracted content: %w"
)

var boilerplateElementNames = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
}

var contentMarkerValues = []string{"content", "article", "post", "entry", "main"}

// ContentExtractor isolates the main content of a page: boilerplate elements
// are dropped and the most content-like subtree is kept.
type ContentExtractor struct{}

// NewContentExtractor creates a content extractor.
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// ExtractMainContent returns the HTML of the page's main content region. The
// candidate order is <article>, <main>, the densest element carrying a
// content-like class or id, then <body>.
func (extractor *ContentExtractor) ExtractMainContent(pageHTML string) (string, error) {
	documentRoot, parseError := html.Parse(strings.NewReader(pageHTML))
	if parseError != nil {
		return "", fmt.Errorf(documentParseErrorTemplateConstant, parseError)
	}

	removeBoilerplateElements(documentRoot)

	contentNode := selectContentNode(documentRoot)
	if contentNode == nil {
		contentNode = documentRoot
	}

	var renderedContent bytes.Buffer
	if renderError := html.Render(&renderedContent, contentNode); renderError != nil {
		return "", fmt.Errorf(contentRenderErrorTemplate, renderError)
	}
	return renderedContent.String(), nil
}

func removeBoilerplateElements(node *html.Node) {
	var removableNodes []*html.Node
	var findRemovable func(candidate *html.Node)
	findRemovable = func(candidate *html.Node) {
		if candidate.Type == html.ElementNode && boilerplateElementNames[candidate.Data] {
			removableNodes = append(removableNodes, candidate)
			return
		}
		for childNode := candidate.FirstChild; childNode != nil; childNode = childNode.NextSibling {
			findRemovable(childNode)
		}
	}
	findRemovable(node)

	for _, removableNode := range removableNodes {
		if removableNode.Parent != nil {
			removableNode.Parent.RemoveChild(removableNode)
		}
	}
}

func selectContentNode(documentRoot *html.Node) *html.Node {
	if articleNode := findElementByName(documentRoot, "article"); articleNode != nil {
		return articleNode
	}
	if mainNode := findElementByName(documentRoot, "main"); mainNode != nil {
		return mainNode
	}
	if markedNode := findDensestMarkedElement(documentRoot); markedNode != nil {
		return markedNode
	}
	return findElementByName(documentRoot, "body")
}

func findElementByName(node *html.Node, elementName string) *html.Node {
	if node.Type == html.ElementNode && node.Data == elementName {
		return node
	}
	for childNode := node.FirstChild; childNode != nil; childNode = childNode.NextSibling {
		if foundNode := findElementByName(childNode, elementName); foundNode != nil {
			return foundNode
		}
	}
	return nil
}

func findDensestMarkedElement(documentRoot *html.Node) *html.Node {
	var selectedNode *html.Node
	selectedTextLength := 0

	var inspect func(node *html.Node)
	inspect = func(node *html.Node) {
		if node.Type == html.ElementNode && carriesContentMarker(node) {
			nodeTextLength := len(collectNodeText(node))
			if nodeTextLength > selectedTextLength {
				selectedNode = node
				selectedTextLength = nodeTextLength
			}
		}
		for childNode := node.FirstChild; childNode != nil; childNode = childNode.NextSibling {
			inspect(childNode)
		}
	}
	inspect(documentRoot)

	return selectedNode
}

func carriesContentMarker(node *html.Node) bool {
	for _, attribute := range node.Attr {
		if attribute.Key != classAttributeName && attribute.Key != idAttributeName {
			continue
		}
		attributeValue := strings.ToLower(attribute.Val)
		for _, markerValue := range contentMarkerValues {
			if strings.Contains(attributeValue, markerValue) {
				return true
			}
		}
	}
	return false
}

func collectNodeText(node *html.Node) string {
	var textSegments []string
	var collect func(candidate *html.Node)
	collect = func(candidate *html.Node) {
		if candidate.Type == html.ElementNode && boilerplateElementNames[candidate.Data] {
			return
		}
		if candidate.Type == html.TextNode {
			trimmedText := strings.TrimSpace(candidate.Data)
			if len(trimmedText) > 0 {
				textSegments = append(textSegments, trimmedText)
			}
		}
		for childNode := candidate.FirstChild; childNode != nil; childNode = childNode.NextSibling {
			collect(childNode)
		}
	}
	collect(node)
	return strings.Join(textSegments, "\n")
}
