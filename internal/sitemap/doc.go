// Package sitemap expands sitemap indexes into the set of profile page URLs.
//
// # Algorithm
//
// Expansion is a breadth-first traversal over an explicit work queue rather
// than recursive calls. A visited set keyed by normalized URL guarantees
// that every sitemap is fetched at most once, which keeps the traversal
// finite even when sitemaps reference each other cyclically or several
// indexes list the same child.
//
// A fetch or decode failure for one sitemap is recorded and skipped; a
// single broken child sitemap never aborts discovery.
package sitemap
