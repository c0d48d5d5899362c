// Package files discovers previously produced data files in the dated
// destination tree. The downloader writes files at paths computed by the
// config package's layout helpers; this package is the inverse: it walks
// the tree and decodes each path back into its (source, date, data type,
// symbol) coordinates, so the converter and migrator can operate on
// whatever a destination already holds without any external index.
package files
