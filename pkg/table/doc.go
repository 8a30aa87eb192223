// Package table turns collected post records into the result table written
// to CSV and computes the summary statistics.
package table
