// Package printing renders remittance statements to PDF with a headless
// Chrome driven over the DevTools protocol.
//
//	pdf := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://chrome:9222"})
//	defer pdf.Close()
//	statements, err := NewStatementRenderer(pdf, logger)
//	data, err := statements.RenderStatement(ctx, statement)
package printing
