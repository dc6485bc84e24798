package port

import "context"

type ScanResult struct {
	Safe      bool
	Signature string
}

// SecurityScanner checks a buffer for malware. A scan that cannot complete
// (timeout, engine unavailable) must report unsafe: the pipeline fails
// closed on inconclusive scans.
type SecurityScanner interface {
	Scan(ctx context.Context, data []byte) (ScanResult, error)
}
