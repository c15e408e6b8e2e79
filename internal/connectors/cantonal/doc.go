// Package cantonal serves a fixed catalog of cantonal tax laws and federal
// tax circulars and downloads them from the official portals.
package cantonal
