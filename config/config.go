package config

import (
	"github.com/spf13/viper"
)

const (
	MongoURI      = "database.mongo_uri"
	MongoDatabase = "database.mongo_db"

	FirebaseProjectID             = "firebase.project_id"
	FirebaseServiceAccountKeyPath = "firebase.service_account_key_path"

	PaymentAPIURL        = "payment.api_url"
	PaymentSecretKey     = "payment.secret_key"
	PaymentWebhookSecret = "payment.webhook_secret"
	PaymentSuccessURL    = "payment.success_url"
	PaymentCancelURL     = "payment.cancel_url"
	PaymentCurrency      = "payment.currency"

	NotifyWebhookURL = "notify.webhook_url"
	NotifyAccessPass = "notify.access_pass"

	ModerationWebhookURL = "moderation.webhook_url"
	ModerationAccessPass = "moderation.access_pass"

	VaultAddress    = "vault.address"
	VaultToken      = "vault.token"
	VaultUnSealKey  = "vault.unseal_key"
	VaultSecretPath = "vault.secret_path"

	RedisAddress  = "redis.address"
	RedisPassword = "redis.password"
	RedisDB       = "redis.db"

	Port               = "server.port"
	JWTOfflineInterval = "server.jwt_offline_interval"
	AdminEmail         = "server.admin_email"
	AdminIdentityID    = "server.admin_identity_id"
)

func init() {
	viper.AutomaticEnv()
	viper.SetDefault(Port, ":9000")
	viper.SetDefault(JWTOfflineInterval, 120)
	viper.SetDefault(MongoDatabase, "eventhub")
	viper.SetDefault(PaymentAPIURL, "https://api.stripe.com/v1")
	viper.SetDefault(PaymentCurrency, "usd")
	viper.SetDefault(VaultSecretPath, "eventhub")
}
