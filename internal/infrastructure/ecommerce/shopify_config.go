package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/config"
)

// ShopifyHmacHeader carries the base64 HMAC-SHA256 of the raw webhook body
const ShopifyHmacHeader = "X-Shopify-Hmac-Sha256"

// ShopifyAccessTokenHeader authenticates Admin API requests
const ShopifyAccessTokenHeader = "X-Shopify-Access-Token"

const (
	defaultShopifyAPIVersion      = "2024-01"
	defaultShopifyMutationTimeout = 30 * time.Second

	gidOrderPrefix   = "gid://shopify/Order/"
	gidVariantPrefix = "gid://shopify/ProductVariant/"
)

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// ShopifyConfig holds configuration for the Shopify Admin GraphQL API
type ShopifyConfig struct {
	// ShopDomain is the store's myshopify domain, e.g. "example.myshopify.com"
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version, e.g. "2024-01"
	APIVersion string
	// Endpoint overrides the GraphQL URL derived from ShopDomain
	Endpoint string
	// MutationTimeout bounds each GraphQL request
	MutationTimeout time.Duration
}

// NewShopifyConfig creates a Shopify configuration from the application config
func NewShopifyConfig(cfg *config.ShopifyConfig) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:      cfg.ShopDomain,
		AccessToken:     cfg.AccessToken,
		APIVersion:      cfg.APIVersion,
		MutationTimeout: cfg.MutationTimeout,
	}
}

// Validate validates the Shopify configuration and fills in defaults
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" && c.Endpoint == "" {
		return ErrShopifyConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = defaultShopifyAPIVersion
	}
	if c.MutationTimeout <= 0 {
		c.MutationTimeout = defaultShopifyMutationTimeout
	}
	return nil
}

// GraphQLEndpoint returns the Admin GraphQL URL
func (c *ShopifyConfig) GraphQLEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.ShopDomain, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, c.APIVersion)
}

// ---------------------------------------------------------------------------
// Webhook verification
// ---------------------------------------------------------------------------

// SignWebhook returns the base64 HMAC-SHA256 of body keyed with secret
func SignWebhook(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyWebhook reports whether signature is exactly the base64 HMAC-SHA256 of
// the untouched raw body under secret. A missing signature or empty secret
// never verifies.
func VerifyWebhook(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignWebhook(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookVerifier checks webhook signatures against a fixed shared secret
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the given shared secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify reports whether signature authenticates body
func (v *WebhookVerifier) Verify(body []byte, signature string) bool {
	return VerifyWebhook(body, signature, v.secret)
}

// ---------------------------------------------------------------------------
// Global IDs
// ---------------------------------------------------------------------------

// OrderGID converts a numeric order id to its GraphQL global id
func OrderGID(id integration.PlatformID) string {
	return toGID(gidOrderPrefix, id)
}

// VariantGID converts a numeric variant id to its GraphQL global id
func VariantGID(id integration.PlatformID) string {
	return toGID(gidVariantPrefix, id)
}

func toGID(prefix string, id integration.PlatformID) string {
	s := id.String()
	if strings.HasPrefix(s, "gid://") {
		return s
	}
	return prefix + s
}
