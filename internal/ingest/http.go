package ingest

import (
	"context"
	"errors"

	"github.com/AngelCh415/paidmedia-mmm/internal/utils"
)

// GetWithRetry fetches url, retrying transport errors and 5xx/429 answers.
// Other 4xx responses fail immediately.
func GetWithRetry(ctx context.Context, c HTTPClient, url string, b utils.Backoff) ([]byte, error) {
	var body []byte
	err := b.Do(ctx, func(i int) error {
		var err error
		body, err = getBody(ctx, c, url)
		var se *statusError
		if errors.As(err, &se) && se.code < 500 && se.code != 429 {
			return utils.Permanent(err)
		}
		return err
	})
	return body, err
}
