// Package resilience groups the failure handling around summarization
// providers and article downloads.
//
//   - circuitbreaker: one breaker per upstream; rejected prompts and canceled
//     runs do not count against a provider
//   - retry: bounded retries of transient provider failures, honoring
//     Retry-After
//
// A provider call is wrapped as:
//
//	cb := circuitbreaker.New(circuitbreaker.ProviderConfig("claude-api", retry.ClientFault))
//	err := retry.Do(ctx, retry.ModelCallPolicy(3), func(ctx context.Context) error {
//	    summary, err = circuitbreaker.Do(cb, func() (string, error) {
//	        return callProvider(ctx)
//	    })
//	    return err
//	})
package resilience
