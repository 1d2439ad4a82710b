// Package publisher holds plugins that forward NEP-171 events to external
// brokers. Each sub-package implements plugin.OnEvent.
//
//	reg := mintage.New(store,
//		mintage.WithPlugin(kafka.New(client, kafka.WithTopic("nft-events"))),
//	)
package publisher
