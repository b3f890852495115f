// Package services implements the driving ports: the index handle,
// ingestion and question answering. Services depend only on the driven
// port interfaces and carry no infrastructure code.
package services
