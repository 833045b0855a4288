package normalize

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/samcart-relay/pkg/types"
)

// TrackingParameters reads the attribution parameters from a checkout URL.
// Blank or unparsable URLs yield all parameters absent.
func (n *Normalizer) TrackingParameters(ctx context.Context, rawURL string) types.TrackingParameters {
	var params types.TrackingParameters

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return params
	}

	parsed, err := url.Parse(rawURL)
	if err == nil && (parsed.Scheme == "" || parsed.Host == "") {
		err = fmt.Errorf("url %q is not absolute", rawURL)
	}
	if err != nil {
		if n != nil {
			n.logger.Warn(n.logger.WithField(ctx, "checkout_url", rawURL), fmt.Sprintf("tracking parameters unavailable: %v", err))
		}
		return params
	}

	query := parsed.Query()
	for _, key := range types.TrackingKeys {
		if value := query.Get(key); value != "" {
			v := value
			params.Set(key, &v)
		}
	}
	return params
}
