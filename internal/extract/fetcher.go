package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	requestCreationErrorTemplateConstant = "failed to build request for %s: %w"
	requestExecutionErrorTemplate        = "failed to fetch %s: %w"
	responseReadErrorTemplateConstant    = "failed to read response from %s: %w"
	contentDecodeErrorTemplateConstant   = "failed to decode response from %s: %w"
	pageFetchErrorTemplateConstant       = "fetching %s returned status %d"
	contentTypeHeaderNameConstant        = "Content-Type"
	charsetParameterNameConstant         = "charset"

	gb2312CharsetLabelConstant = "gb2312"
	gbkCharsetLabelConstant    = "gbk"
)

// PageFetchError reports a non-success HTTP status while downloading a page.
type PageFetchError struct {
	URL        string
	StatusCode int
}

// Error describes the failed download.
func (fetchError PageFetchError) Error() string {
	return fmt.Sprintf(pageFetchErrorTemplateConstant, fetchError.URL, fetchError.StatusCode)
}

// PageFetcher downloads web pages and decodes their bodies to UTF-8. Legacy
// simplified-Chinese labels (gb2312, gbk) decode through GB18030, which is a
// superset of both.
type PageFetcher struct {
	httpClient *http.Client
}

// NewPageFetcher creates a fetcher whose requests abort after the supplied timeout.
func NewPageFetcher(requestTimeout time.Duration) *PageFetcher {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeoutConstant
	}
	return &PageFetcher{httpClient: &http.Client{Timeout: requestTimeout}}
}

// FetchPage downloads the page at pageURL and returns its body as a UTF-8 string.
func (fetcher *PageFetcher) FetchPage(executionContext context.Context, pageURL string) (string, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, pageURL, nil)
	if requestError != nil {
		return "", fmt.Errorf(requestCreationErrorTemplateConstant, pageURL, requestError)
	}

	response, responseError := fetcher.httpClient.Do(request)
	if responseError != nil {
		return "", fmt.Errorf(requestExecutionErrorTemplate, pageURL, responseError)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", PageFetchError{URL: pageURL, StatusCode: response.StatusCode}
	}

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return "", fmt.Errorf(responseReadErrorTemplateConstant, pageURL, readError)
	}

	decodedContent, decodeError := decodePageContent(responseBody, response.Header.Get(contentTypeHeaderNameConstant))
	if decodeError != nil {
		return "", fmt.Errorf(contentDecodeErrorTemplateConstant, pageURL, decodeError)
	}
	return decodedContent, nil
}

func decodePageContent(responseBody []byte, contentTypeHeader string) (string, error) {
	if headerEncoding := encodingFromContentType(contentTypeHeader); headerEncoding != nil {
		if decodedContent, decodeError := headerEncoding.NewDecoder().Bytes(responseBody); decodeError == nil {
			return string(decodedContent), nil
		}
	}

	if utf8.Valid(responseBody) {
		return string(responseBody), nil
	}

	detectedEncoding, detectedName, _ := charset.DetermineEncoding(responseBody, contentTypeHeader)
	if normalizedEncoding := normalizeLegacyChineseEncoding(detectedName); normalizedEncoding != nil {
		detectedEncoding = normalizedEncoding
	}

	decodedContent, decodeError := detectedEncoding.NewDecoder().Bytes(responseBody)
	if decodeError != nil {
		return "", decodeError
	}
	return string(decodedContent), nil
}

func encodingFromContentType(contentTypeHeader string) encoding.Encoding {
	if len(strings.TrimSpace(contentTypeHeader)) == 0 {
		return nil
	}
	_, mediaTypeParameters, parseError := mime.ParseMediaType(contentTypeHeader)
	if parseError != nil {
		return nil
	}
	charsetLabel := mediaTypeParameters[charsetParameterNameConstant]
	if len(charsetLabel) == 0 {
		return nil
	}
	if normalizedEncoding := normalizeLegacyChineseEncoding(charsetLabel); normalizedEncoding != nil {
		return normalizedEncoding
	}
	labelEncoding, _ := charset.Lookup(charsetLabel)
	return labelEncoding
}

func normalizeLegacyChineseEncoding(charsetLabel string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(charsetLabel)) {
	case gb2312CharsetLabelConstant, gbkCharsetLabelConstant:
		return simplifiedchinese.GB18030
	default:
		return nil
	}
}
