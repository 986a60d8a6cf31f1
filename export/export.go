// Package export writes reports to external formats. Writers consume the
// analysis Report; they never feed back into collection or analysis.
package export

import "github.com/X-Olivia/bilibili-content-analyzer/analysis"

// Writer is the interface any report sink must satisfy.
type Writer interface {
	Write(report *analysis.Report) error
	Close() error
}
