package types

// DocumentFormat is the extraction format derived from a file extension.
type DocumentFormat string

const (
	FormatPDF   DocumentFormat = "pdf"
	FormatPlain DocumentFormat = "plain"
)

// PageSeparator separates page texts of a PDF and file texts of a corpus.
const PageSeparator = "\n\n"

// SkippedFile records a file reference that produced no text during
// aggregation and why.
type SkippedFile struct {
	StorageName string `json:"storageName"`
	Reason      string `json:"reason"`
}

// DocumentServiceConfig holds limits for upload and extraction.
type DocumentServiceConfig struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
	MaxParallelFiles  int
}
