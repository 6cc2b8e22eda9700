package config

// EnvPrefix is passed to envconfig; the struct tags already carry the full
// variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv             = "THREADLINE_APP_ENV"
	EnvPort               = "THREADLINE_APP_PORT"
	EnvDBDSN              = "THREADLINE_DB_DSN"
	EnvDBHost             = "THREADLINE_DB_HOST"
	EnvDBUser             = "THREADLINE_DB_USER"
	EnvDBName             = "THREADLINE_DB_NAME"
	EnvRedisURL           = "THREADLINE_REDIS_URL"
	EnvGCPProjectID       = "THREADLINE_GCP_PROJECT_ID"
	EnvPubSubAssignSub    = "THREADLINE_PUBSUB_ASSIGNMENTS_SUBSCRIPTION"
	EnvWorkflowFirstStage = "THREADLINE_WORKFLOW_FIRST_STAGE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
