// Package tables reads the raw input tables of a transit network build and
// reads and writes the node and arc tables it produces.
//
// # Input tables
//
// Four CSV tables feed a build:
//
//   - stops: one row per stop (ID, name, lat, lng), semicolon-delimited with
//     decimal commas
//   - lines: one row per stop visit (route ID, stop ID, minutes to the next
//     stop), comma-delimited; a line's stop order is the row order
//   - population centers: ID, inhabitants, lat, lng
//   - facilities: name, lat, lng, quality score
//
// The demand tables may use either delimiter; it is detected from the
// header. Column names are configurable through [Columns]. Every problem
// is reported as a coded error from pkg/errors that names the file, the
// row (header = row 1) and the column.
//
// # Output tables
//
// The node table has the header
//
//	ID	Name	Type	Line	Value
//
// and the arc table
//
//	ID	Type	Line	Tail	Head	Time
//
// Types are written as their integer codes and -1 marks an absent line or
// value. Both are tab-separated; [ExportNetwork] replaces them atomically.
// Reading a table and writing it back yields identical bytes.
package tables
