package variables

import (
	"log"
	"os"
)

const (
	HTTP_PORT_DEFAULT = "5000"
	HTTP_PORT_NAME    = "HTTP_PORT"

	CORS_ORIGINS_DEFAULT = "http://localhost:5173"
	CORS_ORIGINS_NAME    = "CORS_ORIGINS"

	DATABASE_PATH_DEFAULT = "nexcall.db"
	DATABASE_PATH_NAME    = "DATABASE_PATH"

	JWT_SECRET_DEFAULT = "nexcall-dev-secret"
	JWT_SECRET_NAME    = "JWT_SECRET"

	ENVIRONMENT_DEFAULT = "development"
	ENVIRONMENT_NAME    = "ENVIRONMENT"

	PROVISION_API_URL_DEFAULT = ""
	PROVISION_API_URL_NAME    = "PROVISION_API_URL"

	PROVISION_API_TOKEN_DEFAULT = ""
	PROVISION_API_TOKEN_NAME    = "PROVISION_API_TOKEN"

	HISTORY_QUEUE_SIZE_DEFAULT = "256"
	HISTORY_QUEUE_SIZE_NAME    = "HISTORY_QUEUE_SIZE"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	log.Printf("[%s_DEFAULT]: %s", variableName, defaultValue)
	return defaultValue
}
