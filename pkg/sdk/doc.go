// Package discover is a Go client for SHARE-style discover pages: free-text
// and faceted search over an Elasticsearch creative-work index, with paging,
// locked deployment filters and URL round-tripping of the search state.
//
// # One-shot search
//
//	client, _ := discover.New(ctx,
//	    discover.WithElasticsearch("https://share.osf.io/api/v2", "/search/creativeworks/_search"),
//	    discover.WithProvider("OSF"),
//	)
//	defer client.Close()
//
//	st, _ := discover.DecodeParams(r.URL.Query())
//	res, err := client.Search(ctx, st.WithQuery("climate"))
//
// # Sessions
//
// A Session owns the state of one page and drops responses that arrive after
// a newer search was started:
//
//	s := client.NewSession(discover.NewState())
//	res, err := s.Apply(ctx, func(st discover.State) discover.State {
//	    return st.ToggleFilter(discover.Tags, "open data")
//	})
//	res, err = s.LoadPage(ctx, 2)
package discover
