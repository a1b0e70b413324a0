// Package template defines the template engine seam used by the HTML
// presenter. The gotemplate subpackage provides the pongo2 implementation.
package template
