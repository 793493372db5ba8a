// Package skvtest provides a standardised test suite and benchmarks for
// implementations of the skv.Client interface.
//
// The suite registers its own schemas, so the factory receives the catalog
// the client has to serve:
//
//	skvtest.RunClientTests(t, "Local", func(c *skv.Catalog) skv.Client {
//		return local.NewClient(c, lstore.NewLocalStore(), codec.NewBinaryCodec())
//	})
package skvtest
