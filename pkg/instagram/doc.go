// Package instagram provides the HTTP client and wire types for talking
// to the platform's public surfaces.
//
// This package includes:
//   - A client with browser-shaped headers, identity rotation and
//     response classification
//   - Type-safe models for both payload shapes the platform serves
//   - Helper functions for constructing endpoint and page URLs
//   - Converters from wire shapes to the canonical Post record
//
// Example usage:
//
//	client := instagram.NewClient(15*time.Second, nil)
//
//	var detail instagram.DetailResponse
//	err := client.GetJSON(ctx, instagram.GetPostURL(shortcode), &detail)
//	if err != nil {
//	    var apiErr *errs.Error
//	    if errors.As(err, &apiErr) {
//	        switch apiErr.Type {
//	        case errs.ErrorTypeLoginRequired:
//	            // login wall, credentials needed
//	        case errs.ErrorTypeRateLimit:
//	            // back off
//	        }
//	    }
//	}
//
//	if post, ok := detail.Post(); ok {
//	    // post is the canonical record
//	}
//
// Every response body passes through pkg/classify before being decoded,
// so a 200 that is really a login wall or captcha page surfaces as a
// typed error rather than a JSON parse failure.
package instagram
