// Package extractors holds TextExtractor implementations that turn stored
// document bytes into plain text.
//
// Each subpackage handles a family of media types:
//
//   - plaintext: text/*, JSON and exported Google Docs
//   - docx: Word OpenXML documents
//   - html: saved web pages
//   - eml: RFC 822 email messages
//
// PDF is intentionally absent; the extraction service reports it as skipped.
package extractors
