// Package ferretwatch implements the FerretWatch CLI using Cobra.
//
// Commands:
//   - scan: scan files, directories or stdin for secrets
//   - rules: list the rule catalog in priority order
//   - config: show the effective configuration or write a starter file
//   - baseline: record current findings as accepted
//   - version: print the engine version
//
// Execute is the entrypoint used by the main package:
//
//	func main() { ferretwatch.Execute() }
package ferretwatch
