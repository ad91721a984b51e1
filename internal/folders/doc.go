// Package folders maps category folder names onto directories under the
// organization root, reusing existing directories where a name matches and
// creating new ones otherwise.
package folders
