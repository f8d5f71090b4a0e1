// Package readings encodes glucose readings for upload.
//
// CSV output mirrors the column order of domain.ReadingFields with
// second-resolution timestamps. Parquet output uses the struct tags of
// domain.Reading and Snappy compression.
package readings
