package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DocumentType labels the kind of page an extraction works on.
type DocumentType string

// Document types recognized by the classifier.
const (
	DocumentTypeArticle DocumentType = "article"
	DocumentTypeForum   DocumentType = "forum"
	DocumentTypeWeixin  DocumentType = "weixin"
)

const (
	weixinHostSuffixConstant = "weixin.qq.com"
	classAttributeName       = "class"
	idAttributeName          = "id"
)

var forumMarkerValues = []string{
	"forum", "topic", "thread", "post", "reply", "comment", "discuss",
	"论坛", "帖子", "回复", "评论", "讨论",
}

// DetectDocumentType classifies a page as a Weixin article, a forum thread, or
// a plain article. Weixin pages are recognized by host, forums by marker words
// in class and id attributes.
func DetectDocumentType(pageURL string, pageHTML string) DocumentType {
	if parsedURL, parseError := url.Parse(pageURL); parseError == nil {
		hostName := strings.ToLower(parsedURL.Hostname())
		if hostName == weixinHostSuffixConstant || strings.HasSuffix(hostName, "."+weixinHostSuffixConstant) {
			return DocumentTypeWeixin
		}
	}

	if containsForumMarkers(pageHTML) {
		return DocumentTypeForum
	}
	return DocumentTypeArticle
}

func containsForumMarkers(pageHTML string) bool {
	documentRoot, parseError := html.Parse(strings.NewReader(pageHTML))
	if parseError != nil {
		return false
	}

	var attributeValues []string
	var collectAttributes func(node *html.Node)
	collectAttributes = func(node *html.Node) {
		if node.Type == html.ElementNode {
			for _, attribute := range node.Attr {
				if attribute.Key == classAttributeName || attribute.Key == idAttributeName {
					attributeValues = append(attributeValues, attribute.Val)
				}
			}
		}
		for childNode := node.FirstChild; childNode != nil; childNode = childNode.NextSibling {
			collectAttributes(childNode)
		}
	}
	collectAttributes(documentRoot)

	joinedAttributeValues := strings.ToLower(strings.Join(attributeValues, " "))
	for _, markerValue := range forumMarkerValues {
		if strings.Contains(joinedAttributeValues, markerValue) {
			return true
		}
	}
	return false
}
