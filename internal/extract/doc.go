// Package extract downloads web pages, isolates their main content, and
// converts it to html, markdown, or plain text. Pages are classified as
// weixin, forum, or article before extraction, and legacy simplified-Chinese
// encodings decode through GB18030.
package extract
