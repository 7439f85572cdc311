// Package questionbank wires a question store and an AI provider into the
// enrichment pipeline, the search engine and the CSV importer.
//
//	db, err := questionbank.NewDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	pipeline, err := db.NewPipeline()
//	...
//	searcher, err := db.NewSearcher()
//	results, err := searcher.Search(ctx, search.Query{Company: "Google", Text: "caching"})
package questionbank
