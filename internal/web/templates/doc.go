// Package templates holds the HTML fragments swapped in by HTMX clients.
// Components are written in .templ files; run `templ generate` after editing.
package templates
