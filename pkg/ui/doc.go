// Package ui holds the console side of witsbot: colours, the logo, progress
// lines, completion notifications and the status tables.
package ui
