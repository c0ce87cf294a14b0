// Package source groups the unreliable data-source collaborators agents call:
// the GitHub repository fetcher (source/github) and the web page fetcher
// (source/web). Fetchers may return partial data or fail; callers degrade.
package source
