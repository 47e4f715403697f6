// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "fishclub")
	v.SetDefault("main.timezone", "America/Sao_Paulo")

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/fishclub.log")
	v.SetDefault("logging.fileoutput.level", "info")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "fishclub.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.database", "fishclub")
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.port", "8080")
	v.SetDefault("webserver.allowedorigins", []string{"*"})
	v.SetDefault("webserver.debug", false)
	v.SetDefault("webserver.metrics", true)
	v.SetDefault("webserver.admin.enabled", false)
	v.SetDefault("webserver.admin.username", "admin")

	v.SetDefault("ranking.catchcap", 2)
	v.SetDefault("ranking.topn", 10)

	v.SetDefault("wikipedia.baseurl", "https://pt.wikipedia.org")
	v.SetDefault("wikipedia.useragent", "fishclub/1.0 (Species Enrichment)")
	v.SetDefault("wikipedia.timeout", 10*time.Second)
	v.SetDefault("wikipedia.cachettl", 24*time.Hour)
	v.SetDefault("wikipedia.ratelimit", 1.0)
	v.SetDefault("wikipedia.autofill", true)

	v.SetDefault("stormglass.baseurl", "https://api.stormglass.io/v2/weather/point")
	v.SetDefault("stormglass.source", "")
	v.SetDefault("stormglass.timeout", 20*time.Second)
	v.SetDefault("stormglass.dailyquota", 10)

	v.SetDefault("forecast.concurrency", 2)
	v.SetDefault("forecast.interval", 0)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.timeout", 10*time.Second)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "fishclub")
	v.SetDefault("mqtt.retain", false)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.environment", "production")
}
