// Package html provides a Normaliser for HTML documents. Text is taken from
// the parsed DOM; scripts, styles and page chrome are dropped, and the
// title, description, canonical link and language are lifted into the
// document fields.
package html
