// Package template defines the template engine seam HTML renderers render
// through. The pongo subpackage provides the pongo2 implementation.
package template
