package config

// EnvPrefix is passed to envconfig; individual fields carry the full
// PRINTWORKS_* variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "PRINTWORKS_APP_ENV"
	EnvPort   = "PRINTWORKS_APP_PORT"

	EnvDBDSN  = "PRINTWORKS_DB_DSN"
	EnvDBHost = "PRINTWORKS_DB_HOST"
	EnvDBUser = "PRINTWORKS_DB_USER"
	EnvDBName = "PRINTWORKS_DB_NAME"

	EnvRedisURL = "PRINTWORKS_REDIS_URL"

	EnvJWTSecret              = "PRINTWORKS_JWT_SECRET"
	EnvJWTIssuer              = "PRINTWORKS_JWT_ISSUER"
	EnvJWTExpMins             = "PRINTWORKS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PRINTWORKS_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID      = "PRINTWORKS_GCP_PROJECT_ID"
	EnvGCSBucket         = "PRINTWORKS_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry   = "PRINTWORKS_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry = "PRINTWORKS_GCS_DOWNLOAD_URL_EXPIRY"

	EnvPubSubArtworkTopic    = "PRINTWORKS_PUBSUB_ARTWORK_TOPIC"
	EnvPubSubArtworkSub      = "PRINTWORKS_PUBSUB_ARTWORK_SUBSCRIPTION"
	EnvPubSubOrdersTopic     = "PRINTWORKS_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub       = "PRINTWORKS_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubBillingTopic    = "PRINTWORKS_PUBSUB_BILLING_TOPIC"
	EnvPubSubBillingSub      = "PRINTWORKS_PUBSUB_BILLING_SUBSCRIPTION"
	EnvPubSubNotificationSub = "PRINTWORKS_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubAnalyticsTopic  = "PRINTWORKS_PUBSUB_ANALYTICS_TOPIC"
	EnvPubSubAnalyticsSub    = "PRINTWORKS_PUBSUB_ANALYTICS_SUBSCRIPTION"

	EnvPricingTaxRate = "PRINTWORKS_PRICING_TAX_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
