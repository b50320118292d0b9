package oauth

import (
	"context"

	"tripline-service/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// EnrichmentOAuth handles OAuth authentication with the enrichment API,
// which issues tokens through the client-credentials flow.
type EnrichmentOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewEnrichmentOAuth creates a new enrichment OAuth handler
func NewEnrichmentOAuth(clientID, clientSecret, tokenURL string, logger logger.Logger) *EnrichmentOAuth {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &EnrichmentOAuth{
		config: config,
		logger: logger,
	}
}

// GetTokenSource returns a token source that can be used with the enrichment API
func (o *EnrichmentOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return o.config.TokenSource(ctx)
}
