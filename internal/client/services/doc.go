// Package services adapts the remote document and auth contracts to the
// shapes the synchronizers and the CLI work with.
//
// Each store maps one collection: favorites, plans, products and sellers.
// Records travel as generic documents; the server stamps createdAt and
// updatedAt, so those fields are never sent.
package services
