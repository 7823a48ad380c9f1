// Package wordpress speaks the WordPress REST API discovery protocol: a
// single HTTP fetch primitive, the parsed shape of the /wp-json/ root
// document, the hand-curated route reference table, and the live-probe
// classifier for routes the table does not know.
package wordpress
