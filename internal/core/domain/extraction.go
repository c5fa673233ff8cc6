package domain

// ExtractionKind discriminates ExtractionOutcome variants.
type ExtractionKind int

// Extraction outcome variants.
const (
	// ExtractionExtracted carries non-empty text.
	ExtractionExtracted ExtractionKind = iota
	// ExtractionEmpty is a successful extraction of zero-length text.
	ExtractionEmpty
	// ExtractionSkipped is a deliberate refusal, e.g. PDF.
	ExtractionSkipped
	// ExtractionUnsupported means no extractor handles the media type.
	ExtractionUnsupported
	// ExtractionFailed means decoding the bytes failed.
	ExtractionFailed
)

// ExtractionOutcome is the result of turning stored bytes into text.
// Exactly one of the payload fields is meaningful, selected by Kind.
type ExtractionOutcome struct {
	Kind      ExtractionKind
	Text      string
	Reason    string
	MediaType string
	Err       error
}

// Extracted returns an outcome carrying text.
func Extracted(text string) ExtractionOutcome {
	if text == "" {
		return ExtractionOutcome{Kind: ExtractionEmpty}
	}
	return ExtractionOutcome{Kind: ExtractionExtracted, Text: text}
}

// Skipped returns a deliberate-skip outcome.
func Skipped(reason string) ExtractionOutcome {
	return ExtractionOutcome{Kind: ExtractionSkipped, Reason: reason}
}

// Unsupported returns an unsupported-media-type outcome.
func Unsupported(mediaType string) ExtractionOutcome {
	return ExtractionOutcome{Kind: ExtractionUnsupported, MediaType: mediaType}
}

// Failed returns a decode-failure outcome.
func Failed(err error) ExtractionOutcome {
	return ExtractionOutcome{Kind: ExtractionFailed, Err: err}
}

// HasText reports whether the outcome persisted text (possibly empty).
func (o ExtractionOutcome) HasText() bool {
	return o.Kind == ExtractionExtracted || o.Kind == ExtractionEmpty
}

// String names the variant.
func (k ExtractionKind) String() string {
	switch k {
	case ExtractionExtracted:
		return "extracted"
	case ExtractionEmpty:
		return "empty"
	case ExtractionSkipped:
		return "skipped"
	case ExtractionUnsupported:
		return "unsupported"
	case ExtractionFailed:
		return "failed"
	default:
		return "unknown"
	}
}
