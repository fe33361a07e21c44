// Package pkgconfig abstracts configuration loading behind a small Config
// interface so modules do not depend on a concrete config library.
package pkgconfig
