// Package domain holds the storefront entities shared by the shop services:
// users and roles, the catalog, cart lines, orders and reviews.
package domain
