// Package services implements the driving ports.
//
// Retrieval is read-only: it fans out to the lexical and vector branches,
// fuses their results, drops untrusted sources and renders a context block.
// Ingestion is the only writer.
package services
