// Package retry retries an operation with exponential backoff.
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
//	    return send(ctx)
//	})
//
// Wrap an error with Permanent to stop immediately:
//
//	if resp.StatusCode == http.StatusBadRequest {
//	    return retry.Permanent(err)
//	}
package retry
