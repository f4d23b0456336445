// Package strategy implements the retrieval strategy variants the
// orchestrator fans requests out to.
//
// Variants, roughly in descending order of data quality:
//   - session: authenticated web API calls using stored cookies
//   - api: anonymous web API calls with browser-shaped headers
//   - embed: the public oEmbed endpoint, driven by shortcodes scanned
//     from listing pages
//   - scrape: server-rendered HTML parsing (JSON-LD, inline script
//     payloads, raw shortcode sweep)
//   - browser: a headless browser rendering the page before the HTML
//     extraction chain runs
//
// Every variant implements the Strategy interface and reports its
// outcome as a StrategyResult; failures, blocks and rate limits are
// states in that result, never Go errors. A shared runner applies the
// per-attempt timeout and the retry budget from the variant's
// descriptor.
package strategy
