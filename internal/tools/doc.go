// Package tools runs local helper processes such as the form editor.
package tools
