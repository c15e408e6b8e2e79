// Package html extracts legal text from markup with goquery.
//
// Three extractors share the same cleaning rules:
//   - ArticleExtractor reads Fedlex consolidations, one section per <article>.
//   - SelectorExtractor reads cantonal portals using a per-law CSS selector.
//   - ParagraphExtractor reads court decisions as block-level lines.
package html
