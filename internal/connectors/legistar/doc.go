// Package legistar ingests municipal agenda items from a Legistar client
// (for example phoenix.legistar.com).
//
// Upcoming meetings are listed through the Legistar Web API. When the API
// fails or returns nothing, the connector falls back to scraping the public
// calendar and meeting-detail pages. Each agenda item becomes one
// city-level measure.
package legistar
