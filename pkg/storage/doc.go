// Package storage writes result tables to CSV files.
//
// Output files are named base.csv or base_YYYYMMDD_HHMMSS.csv and are
// written atomically through a temporary file in the same directory.
package storage
