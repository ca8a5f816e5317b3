package patterns

import "github.com/ferretwatch/ferretwatch/internal/types"

type tieredRule struct {
	tier Tier
	rule Rule
}

type ruleOpt func(*Rule)

func exclude(pattern string) ruleOpt {
	return func(r *Rule) { r.Exclude = MustRegex(pattern) }
}

func provider(p string) ruleOpt {
	return func(r *Rule) { r.Provider = p }
}

func requireEntropy() ruleOpt {
	return func(r *Rule) { r.RequireEntropy = true }
}

func def(tier Tier, id, typ string, risk types.RiskLevel, category, pattern string, opts ...ruleOpt) tieredRule {
	r := Rule{
		ID:        id,
		Matcher:   MustRegex(pattern),
		Type:      typ,
		RiskLevel: risk,
		Category:  category,
	}
	for _, o := range opts {
		o(&r)
	}
	return tieredRule{tier: tier, rule: r}
}

// Anchors: rules avoid ^ and $ because the scanner hands matchers slices that
// start on line or word boundaries, not at the start of the content.
func builtinRules() []tieredRule {
	const (
		crit = types.RiskCritical
		high = types.RiskHigh
		med  = types.RiskMedium
		low  = types.RiskLow
	)
	return []tieredRule{
		// high tier: provider-specific prefixes with little ambiguity
		def(TierHigh, "aws_access_key_id", "AWS Access Key ID", crit, "aws",
			`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
		def(TierHigh, "aws_secret_access_key", "AWS Secret Access Key", crit, "aws",
			`(?i)(?:aws_secret_access_key|aws_secret_key|secretAccessKey|secretKey)["'\s]*[:=]\s*["']?(?P<secret>[A-Za-z0-9/+=]{40})`),
		def(TierHigh, "github_pat", "GitHub Personal Access Token", crit, "github",
			`\bghp_[A-Za-z0-9]{36}\b`),
		def(TierHigh, "github_fine_grained_pat", "GitHub Fine-Grained Token", crit, "github",
			`\bgithub_pat_[A-Za-z0-9_]{82}\b`),
		def(TierHigh, "github_oauth", "GitHub OAuth Token", high, "github",
			`\bgho_[A-Za-z0-9]{36}\b`),
		def(TierHigh, "github_app_token", "GitHub App Token", high, "github",
			`\bgh[us]_[A-Za-z0-9]{36}\b`),
		def(TierHigh, "github_refresh_token", "GitHub Refresh Token", high, "github",
			`\bghr_[A-Za-z0-9]{36}\b`),
		def(TierHigh, "stripe_live_key", "Stripe Live Secret Key", crit, "stripe",
			`\b[rs]k_live_[A-Za-z0-9]{24,}\b`),
		def(TierHigh, "private_key", "Private Key", crit, "private_key",
			`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`),
		def(TierHigh, "anthropic_api_key", "Anthropic API Key", crit, "ai",
			`\bsk-ant-[A-Za-z0-9_-]{30,}`),
		def(TierHigh, "openai_api_key", "OpenAI API Key", crit, "ai",
			`\bsk-(?:proj-)?[A-Za-z0-9]{32,}\b`),
		def(TierHigh, "slack_token", "Slack Token", high, "slack",
			`\bxox[abposr]-[A-Za-z0-9-]{10,72}\b`),
		def(TierHigh, "gitlab_pat", "GitLab Personal Access Token", high, "gitlab",
			`\bglpat-[A-Za-z0-9_-]{20}\b`),
		def(TierHigh, "digitalocean_pat", "DigitalOcean Personal Access Token", high, "digitalocean",
			`\bdo[opr]_v1_[a-f0-9]{64}\b`),
		def(TierHigh, "npm_token", "npm Access Token", high, "npm",
			`\bnpm_[A-Za-z0-9]{36}\b`),

		// medium tier: formats with a recognisable shape but more collisions
		def(TierMedium, "database_uri", "Database Connection String", crit, "database",
			`\b(?:mongodb(?:\+srv)?|postgres(?:ql)?|mysql|mariadb|redis|rediss|amqps?|sqlserver|mssql)://[^\s'"<>`+"`"+`]+`),
		def(TierMedium, "google_api_key", "Google API Key", high, "google",
			`\bAIza[0-9A-Za-z_-]{35}`),
		def(TierMedium, "slack_webhook", "Slack Webhook URL", high, "slack",
			`https://hooks\.slack\.com/services/[A-Z0-9]{9,}/[A-Z0-9]{9,}/[A-Za-z0-9]{24,}`),
		def(TierMedium, "discord_webhook", "Discord Webhook URL", med, "discord",
			`https://(?:ptb\.|canary\.)?discord(?:app)?\.com/api/webhooks/\d+/[A-Za-z0-9_-]+`),
		def(TierMedium, "sendgrid_api_key", "SendGrid API Key", high, "sendgrid",
			`\bSG\.[A-Za-z0-9_-]{16,32}\.[A-Za-z0-9_-]{32,64}`),
		def(TierMedium, "twilio_api_key", "Twilio API Key", med, "twilio",
			`\bSK[0-9a-fA-F]{32}\b`),
		def(TierMedium, "mailgun_api_key", "Mailgun API Key", med, "mailgun",
			`\bkey-[0-9a-f]{32}\b`),
		def(TierMedium, "stripe_test_key", "Stripe Test Secret Key", low, "stripe",
			`\bsk_test_[A-Za-z0-9]{24,}\b`),
		def(TierMedium, "shopify_token", "Shopify Access Token", high, "shopify",
			`\bshp(?:at|ca|pa|ss)_[a-fA-F0-9]{32}\b`),
		def(TierMedium, "heroku_api_key", "Heroku API Key", med, "heroku",
			`(?i)heroku(?:[_\s-]*api[_\s-]*key)?["'\s]*[:=]\s*["']?(?P<secret>[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`),
		def(TierMedium, "huggingface_token", "Hugging Face Token", high, "ai",
			`\bhf_[A-Za-z0-9]{34,}\b`),
		def(TierMedium, "sentry_dsn", "Sentry DSN", low, "sentry",
			`https://[0-9a-f]{32}@o\d+\.ingest\.(?:us\.|de\.)?sentry\.io/\d+`),
		def(TierMedium, "jwt", "JSON Web Token", med, "jwt",
			`\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
		def(TierMedium, "basic_auth_url", "Credentials in URL", high, "database",
			`\bhttps?://[^\s:/@'"]+:[^\s@/'"]+@[A-Za-z0-9.-]+`),

		// cloud storage tier: bucket URLs handed to the bucket prober by callers
		def(TierCloudStorage, "aws_s3_virtual_host", "AWS S3 Bucket", med, "cloudStorage",
			`\b[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]\.s3(?:[.-][a-z0-9-]+)?\.amazonaws\.com\b`,
			provider("aws"), exclude(`^s3[.-]`)),
		def(TierCloudStorage, "aws_s3_path", "AWS S3 Bucket", med, "cloudStorage",
			`\bs3(?:[.-][a-z0-9-]+)?\.amazonaws\.com/[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]`,
			provider("aws")),
		def(TierCloudStorage, "gcs_bucket_path", "Google Cloud Storage Bucket", med, "cloudStorage",
			`\bstorage\.(?:cloud\.)?googleapis\.com/[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]`,
			provider("gcp")),
		def(TierCloudStorage, "gcs_bucket_host", "Google Cloud Storage Bucket", med, "cloudStorage",
			`\b[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]\.storage\.googleapis\.com\b`,
			provider("gcp")),
		def(TierCloudStorage, "azure_blob", "Azure Blob Storage Container", med, "cloudStorage",
			`\b[a-z0-9]{3,24}\.blob\.core\.windows\.net(?:/[a-z0-9][a-z0-9-]{2,62})?`,
			provider("azure")),
		def(TierCloudStorage, "azure_sas_url", "Azure SAS URL", high, "cloudStorage",
			`https?://[A-Za-z0-9.-]+\.core\.windows\.net/[^?\s]+\?[^\s'"<>]*sig=[^\s&'"<>]+`,
			provider("azure")),
		def(TierCloudStorage, "do_spaces", "DigitalOcean Space", med, "cloudStorage",
			`\b[a-z0-9][a-z0-9-]{1,61}[a-z0-9]\.[a-z]{3}\d\.digitaloceanspaces\.com\b`,
			provider("digitalocean")),
		def(TierCloudStorage, "firebase_database", "Firebase Realtime Database", low, "cloudStorage",
			`\b[a-z0-9][a-z0-9-]{2,}\.firebaseio\.com\b`,
			provider("firebase")),

		// low tier: generic assignments, gated on entropy
		def(TierLow, "generic_api_key", "Generic API Key", med, "generic",
			`(?i)\b(?:api[_-]?key|apikey|api[_-]?secret|client[_-]?secret|secret[_-]?key|access[_-]?token|auth[_-]?token|token)\b["'\s]*[:=]\s*["']?(?P<secret>[A-Za-z0-9_\-+/=.]{16,128})`,
			requireEntropy(), exclude(`(?i)^(?:true|false|null|undefined|none)$|process\.env|\$\{`)),
		def(TierLow, "bearer_token", "Bearer Token", med, "generic",
			`(?i)\bbearer\s+(?P<secret>[A-Za-z0-9_\-.=]{20,})`,
			requireEntropy()),
		def(TierLow, "password_assignment", "Password Assignment", low, "password",
			`(?i)\b(?:password|passwd|pwd)\b["'\s]*[:=]\s*["'](?P<secret>[^"'\s]{8,64})["']`,
			exclude(`(?i)password|\*{3,}|\{\{`)),
	}
}
