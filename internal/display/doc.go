// Package display routes the views published by status bars to their
// presentation sinks. It keeps the latest view of every bar, writes views
// through output formatters, and fans them out to several surfaces.
package display
