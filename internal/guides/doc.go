// Package guides scrapes the national tour guide registry (huongdanvien.vn)
// for one province and exports the parsed records to a blob store.
package guides
