// Package core provides a small, stable facade over FerretWatch's internal
// packages for programs that embed the scanner.
//
// Example:
//
//	sc, err := core.NewScannerContext(core.DefaultSettings())
//	if err != nil { /* handle */ }
//	findings, stats := sc.ProgressiveScan(ctx, text, nil, core.ScanOptions{BudgetMs: 16})
//	if stats.Aborted { /* partial results */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
