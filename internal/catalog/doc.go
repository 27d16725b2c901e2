// Package catalog stores and queries audio artifact metadata records.
//
// Two implementations back the Store interface: DynamoDB for deployed
// environments and a sqlite database for local development. Both key records
// by (id, createdDate) and expose the promotable scan the batch scheduler
// builds its candidate list from.
package catalog
